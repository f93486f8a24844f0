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

// Package matching holds the field similarity functions and the condition tree
// evaluator used to decide whether two records are duplicates.
package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

type MatchType string

const (
	MatchExact       MatchType = "exact"
	MatchFuzzy       MatchType = "fuzzy"
	MatchPhonetic    MatchType = "phonetic"
	MatchEmailDomain MatchType = "email_domain"
)

// DefaultThreshold applies to leaves that do not set a threshold.
const DefaultThreshold = 0.8

// maxConditionDepth bounds nesting of stored condition trees.
const maxConditionDepth = 16

// ConditionNode is either a Group or a Leaf. The unexported marker method keeps the set
// of implementations closed to this package.
type ConditionNode interface {
	conditionNode()
}

// Group combines the results of its children with AND or OR.
type Group struct {
	Logic    Logic
	Children []ConditionNode
}

// Leaf compares one field of both records with a similarity function.
type Leaf struct {
	FieldPath string
	MatchType MatchType
	Threshold float64
}

func (Group) conditionNode() {}
func (Leaf) conditionNode()  {}

// And builds an AND group.
func And(children ...ConditionNode) Group {
	return Group{Logic: LogicAnd, Children: children}
}

// Or builds an OR group.
func Or(children ...ConditionNode) Group {
	return Group{Logic: LogicOr, Children: children}
}

// Field builds a leaf with the default threshold.
func Field(path string, matchType MatchType) Leaf {
	return Leaf{FieldPath: path, MatchType: matchType, Threshold: DefaultThreshold}
}

// WithThreshold returns a copy of the leaf using threshold.
func (l Leaf) WithThreshold(threshold float64) Leaf {
	l.Threshold = threshold
	return l
}

// IsValid reports whether t names a known similarity function.
func (t MatchType) IsValid() bool {
	switch t {
	case MatchExact, MatchFuzzy, MatchPhonetic, MatchEmailDomain:
		return true
	}
	return false
}

type groupJSON struct {
	Logic Logic             `json:"logic"`
	Rules []json.RawMessage `json:"rules"`
}

type leafJSON struct {
	Field     string    `json:"field"`
	MatchType MatchType `json:"match_type"`
	Threshold *float64  `json:"threshold,omitempty"`
}

func (g Group) MarshalJSON() ([]byte, error) {
	children := g.Children
	if children == nil {
		children = []ConditionNode{}
	}
	return json.Marshal(struct {
		Logic Logic           `json:"logic"`
		Rules []ConditionNode `json:"rules"`
	}{Logic: g.Logic, Rules: children})
}

func (l Leaf) MarshalJSON() ([]byte, error) {
	threshold := l.Threshold
	return json.Marshal(leafJSON{Field: l.FieldPath, MatchType: l.MatchType, Threshold: &threshold})
}

// ParseConditions decodes and validates a condition tree. Groups are encoded as
// {"logic": "and"|"or", "rules": [...]} and leaves as
// {"field": "a.b", "match_type": "fuzzy", "threshold": 0.8}.
func ParseConditions(raw []byte) (ConditionNode, error) {

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("conditions are required")
	}
	node, err := parseNode(trimmed, "conditions", 0)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func parseNode(raw json.RawMessage, at string, depth int) (ConditionNode, error) {

	if depth > maxConditionDepth {
		return nil, fmt.Errorf("%s: condition tree is nested deeper than %d levels", at, maxConditionDepth)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%s: condition must be a JSON object", at)
	}

	_, hasLogic := probe["logic"]
	_, hasRules := probe["rules"]
	_, hasField := probe["field"]

	switch {
	case hasLogic || hasRules:
		if hasField {
			return nil, fmt.Errorf("%s: a condition cannot be both a group and a field comparison", at)
		}
		var g groupJSON
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("%s: invalid condition group", at)
		}
		logic := Logic(strings.ToLower(string(g.Logic)))
		if logic != LogicAnd && logic != LogicOr {
			return nil, fmt.Errorf("%s: logic must be 'and' or 'or'", at)
		}
		group := Group{Logic: logic, Children: make([]ConditionNode, 0, len(g.Rules))}
		for i, child := range g.Rules {
			node, err := parseNode(child, fmt.Sprintf("%s.rules[%d]", at, i), depth+1)
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, node)
		}
		return group, nil

	case hasField:
		var l leafJSON
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("%s: invalid field condition", at)
		}
		leaf := Leaf{FieldPath: strings.TrimSpace(l.Field), MatchType: l.MatchType, Threshold: DefaultThreshold}
		if l.Threshold != nil {
			leaf.Threshold = *l.Threshold
		}
		if err := validateLeaf(leaf); err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		return leaf, nil
	}

	return nil, fmt.Errorf("%s: condition must define either 'logic' and 'rules' or 'field'", at)
}

// Validate checks a programmatically built tree with the same rules ParseConditions applies.
func Validate(node ConditionNode) error {
	return validateNode(node, "conditions", 0)
}

func validateNode(node ConditionNode, at string, depth int) error {

	if depth > maxConditionDepth {
		return fmt.Errorf("%s: condition tree is nested deeper than %d levels", at, maxConditionDepth)
	}
	switch n := node.(type) {
	case Group:
		if n.Logic != LogicAnd && n.Logic != LogicOr {
			return fmt.Errorf("%s: logic must be 'and' or 'or'", at)
		}
		for i, child := range n.Children {
			if err := validateNode(child, fmt.Sprintf("%s.rules[%d]", at, i), depth+1); err != nil {
				return err
			}
		}
		return nil
	case Leaf:
		if err := validateLeaf(n); err != nil {
			return fmt.Errorf("%s: %w", at, err)
		}
		return nil
	case nil:
		return fmt.Errorf("%s: condition is missing", at)
	default:
		return fmt.Errorf("%s: unsupported condition node %T", at, node)
	}
}

func validateLeaf(leaf Leaf) error {

	if leaf.FieldPath == "" {
		return fmt.Errorf("field is required")
	}
	for _, segment := range strings.Split(leaf.FieldPath, ".") {
		if strings.TrimSpace(segment) == "" {
			return fmt.Errorf("field path '%s' has an empty segment", leaf.FieldPath)
		}
	}
	if !leaf.MatchType.IsValid() {
		return fmt.Errorf("unknown match_type '%s'", leaf.MatchType)
	}
	if leaf.Threshold < 0 || leaf.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	return nil
}

// Fields lists the distinct field paths referenced by the tree in first-seen order.
func Fields(node ConditionNode) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(ConditionNode)
	walk = func(n ConditionNode) {
		switch v := n.(type) {
		case Group:
			for _, c := range v.Children {
				walk(c)
			}
		case Leaf:
			if !seen[v.FieldPath] {
				seen[v.FieldPath] = true
				out = append(out, v.FieldPath)
			}
		}
	}
	walk(node)
	return out
}
