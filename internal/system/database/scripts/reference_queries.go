/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package scripts

// Each retarget query takes the dataset id, the old record id and the new record id.

var RetargetRelationshipsFrom = map[string]string{
	"postgres": `UPDATE record_relationships SET from_record_id = $3
       WHERE from_dataset_id = $1 AND from_record_id = $2`,
}

var RetargetRelationshipsTo = map[string]string{
	"postgres": `UPDATE record_relationships SET to_record_id = $3
       WHERE to_dataset_id = $1 AND to_record_id = $2`,
}

// DeleteSelfRelationships takes the dataset id and the surviving record id.
var DeleteSelfRelationships = map[string]string{
	"postgres": `DELETE FROM record_relationships
       WHERE from_dataset_id = $1 AND to_dataset_id = $1 AND from_record_id = $2 AND to_record_id = $2`,
}

var RetargetNotes = map[string]string{
	"postgres": `UPDATE record_notes SET record_id = $3 WHERE dataset_id = $1 AND record_id = $2`,
}

var RetargetTasks = map[string]string{
	"postgres": `UPDATE record_tasks SET record_id = $3 WHERE dataset_id = $1 AND record_id = $2`,
}

var RetargetEmails = map[string]string{
	"postgres": `UPDATE record_emails SET record_id = $3 WHERE dataset_id = $1 AND record_id = $2`,
}

var RetargetAttachments = map[string]string{
	"postgres": `UPDATE record_attachments SET record_id = $3 WHERE dataset_id = $1 AND record_id = $2`,
}

var RetargetAuditLogs = map[string]string{
	"postgres": `UPDATE record_audit_logs SET record_id = $3 WHERE dataset_id = $1 AND record_id = $2`,
}

// RetargetActivities stamps merged_from with the original record id unless an earlier merge
// already did.
var RetargetActivities = map[string]string{
	"postgres": `UPDATE record_activities SET record_id = $3,
       metadata = CASE WHEN metadata ? 'merged_from' THEN metadata
                       ELSE jsonb_set(COALESCE(metadata, '{}'::jsonb), '{merged_from}', to_jsonb($2::bigint)) END
       WHERE dataset_id = $1 AND record_id = $2`,
}
