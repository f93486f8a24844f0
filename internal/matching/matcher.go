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

package matching

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailValidator is safe for concurrent use.
var emailValidator = validator.New()

// Score dispatches to the similarity function named by matchType.
func Score(matchType MatchType, a, b string) (float64, error) {

	switch matchType {
	case MatchExact:
		return Exact(a, b), nil
	case MatchFuzzy:
		return Fuzzy(a, b), nil
	case MatchPhonetic:
		return Phonetic(a, b), nil
	case MatchEmailDomain:
		return EmailDomain(a, b), nil
	}
	return 0, fmt.Errorf("unknown match type '%s'", matchType)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Exact returns 1 when both values are equal ignoring case and surrounding space.
func Exact(a, b string) float64 {

	if normalize(a) == normalize(b) {
		return 1.0
	}
	return 0.0
}

// Fuzzy returns 1 - levenshtein(a, b) / max(len(a), len(b)) over the normalized values,
// counting runes.
func Fuzzy(a, b string) float64 {

	ra := []rune(normalize(a))
	rb := []rune(normalize(b))
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes the edit distance with two rolling rows.
func levenshtein(a, b []rune) int {

	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Phonetic compares Soundex and Metaphone codes. Equal values and both codes equal score 1,
// one equal scores 0.8, otherwise the similarity of the Metaphone codes is returned when both
// exist. A code family only counts as equal when its codes are non-empty.
func Phonetic(a, b string) float64 {

	if normalize(a) == normalize(b) {
		return 1.0
	}

	soundexA, soundexB := Soundex(a), Soundex(b)
	metaA, metaB := Metaphone(a), Metaphone(b)

	soundexMatch := soundexA != "" && soundexA == soundexB
	metaphoneMatch := metaA != "" && metaA == metaB

	switch {
	case soundexMatch && metaphoneMatch:
		return 1.0
	case soundexMatch || metaphoneMatch:
		return 0.8
	case metaA != "" && metaB != "":
		return SimilarityRatio(metaA, metaB)
	}
	return 0.0
}

// EmailDomain returns 1 when both values are valid email addresses on the same domain.
func EmailDomain(a, b string) float64 {

	domainA, ok := emailDomain(a)
	if !ok {
		return 0.0
	}
	domainB, ok := emailDomain(b)
	if !ok {
		return 0.0
	}
	if domainA == domainB {
		return 1.0
	}
	return 0.0
}

func emailDomain(value string) (string, bool) {

	value = strings.TrimSpace(value)
	if err := emailValidator.Var(value, "required,email"); err != nil {
		return "", false
	}
	at := strings.LastIndex(value, "@")
	if at < 0 || at == len(value)-1 {
		return "", false
	}
	return strings.ToLower(value[at+1:]), true
}
