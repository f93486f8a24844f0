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

import "strings"

// soundexTable maps A..Z to their Soundex digit. Vowels, H, W and Y map to 0.
var soundexTable = [26]byte{
	0, '1', '2', '3', 0, '1', '2', 0, 0, '2', '2', '4', '5',
	'5', 0, '1', '2', '6', '2', '3', 0, '1', 0, '2', 0, '2',
}

// Soundex returns the four character Soundex code of s. Characters other than ASCII
// letters are ignored; a string without letters yields "".
//
// A zero-coded letter (vowel, H, W, Y) resets the previous code, so equal codes separated
// by one of them are both kept.
func Soundex(s string) string {

	code := make([]byte, 0, 4)
	var last byte
	for i := 0; i < len(s) && len(code) < 4; i++ {
		c := upper(s[i])
		if c < 'A' || c > 'Z' {
			continue
		}
		digit := soundexTable[c-'A']
		if len(code) == 0 {
			code = append(code, c)
			last = digit
			continue
		}
		if digit != last {
			if digit != 0 {
				code = append(code, digit)
			}
			last = digit
		}
	}
	if len(code) == 0 {
		return ""
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isVowel(c byte) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

// makesSoft reports letters that soften a preceding C or G.
func makesSoft(c byte) bool {
	return c == 'E' || c == 'I' || c == 'Y'
}

// affectsH reports letters after which H is silent.
func affectsH(c byte) bool {
	switch c {
	case 'C', 'G', 'P', 'S', 'T':
		return true
	}
	return false
}

// noGhToF reports letters that keep a following GH silent.
func noGhToF(c byte) bool {
	return c == 'B' || c == 'D' || c == 'H'
}

// Metaphone returns the Metaphone key of s following Lawrence Philips' original rules.
// Only ASCII letters are considered.
func Metaphone(s string) string {

	word := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := upper(s[i])
		if c >= 'A' && c <= 'Z' {
			word = append(word, c)
		}
	}
	if len(word) == 0 {
		return ""
	}

	at := func(i int) byte {
		if i < 0 || i >= len(word) {
			return 0
		}
		return word[i]
	}

	var key strings.Builder
	idx := 0

	// Initial letter exceptions.
	switch word[0] {
	case 'A':
		if at(1) == 'E' {
			key.WriteByte('E')
			idx = 2
		} else {
			key.WriteByte('A')
			idx = 1
		}
	case 'G', 'K', 'P':
		if at(1) == 'N' {
			key.WriteByte('N')
			idx = 2
		}
	case 'W':
		if at(1) == 'R' {
			key.WriteByte('R')
			idx = 2
		} else if at(1) == 'H' || isVowel(at(1)) {
			key.WriteByte('W')
			idx = 2
		}
	case 'X':
		key.WriteByte('S')
		idx = 1
	case 'E', 'I', 'O', 'U':
		key.WriteByte(word[0])
		idx = 1
	}

	for ; idx < len(word); idx++ {
		cur := word[idx]
		prev := at(idx - 1)
		next := at(idx + 1)
		afterNext := at(idx + 2)

		// Ignore doubled letters except C.
		if cur == prev && cur != 'C' {
			continue
		}

		skip := 0
		switch cur {
		case 'B':
			if !(prev == 'M' && next == 0) {
				key.WriteByte('B')
			}
		case 'C':
			if makesSoft(next) {
				if next == 'I' && afterNext == 'A' {
					key.WriteByte('X')
				} else if prev != 'S' {
					key.WriteByte('S')
				}
			} else if next == 'H' {
				if afterNext == 'R' || prev == 'S' {
					key.WriteByte('K')
				} else {
					key.WriteByte('X')
				}
				skip = 1
			} else {
				key.WriteByte('K')
			}
		case 'D':
			if next == 'G' && makesSoft(afterNext) {
				key.WriteByte('J')
				skip = 1
			} else {
				key.WriteByte('T')
			}
		case 'G':
			if next == 'H' {
				if !(noGhToF(at(idx-3)) || at(idx-4) == 'H') {
					key.WriteByte('F')
					skip = 1
				}
			} else if next == 'N' {
				if !(afterNext == 0 || (afterNext == 'E' && at(idx+3) == 'D')) {
					key.WriteByte('K')
				}
			} else if makesSoft(next) && prev != 'G' {
				key.WriteByte('J')
			} else {
				key.WriteByte('K')
			}
		case 'H':
			if isVowel(next) && !affectsH(prev) {
				key.WriteByte('H')
			}
		case 'K':
			if prev != 'C' {
				key.WriteByte('K')
			}
		case 'P':
			if next == 'H' {
				key.WriteByte('F')
			} else {
				key.WriteByte('P')
			}
		case 'Q':
			key.WriteByte('K')
		case 'S':
			if next == 'I' && (afterNext == 'O' || afterNext == 'A') {
				key.WriteByte('X')
			} else if next == 'H' {
				key.WriteByte('X')
				skip = 1
			} else if next == 'C' && afterNext == 'H' && at(idx+3) == 'W' {
				key.WriteByte('X')
				skip = 2
			} else {
				key.WriteByte('S')
			}
		case 'T':
			if next == 'I' && (afterNext == 'O' || afterNext == 'A') {
				key.WriteByte('X')
			} else if next == 'H' {
				key.WriteByte('0')
				skip = 1
			} else if !(next == 'C' && afterNext == 'H') {
				key.WriteByte('T')
			}
		case 'V':
			key.WriteByte('F')
		case 'W':
			if isVowel(next) {
				key.WriteByte('W')
			}
		case 'X':
			key.WriteString("KS")
		case 'Y':
			if isVowel(next) {
				key.WriteByte('Y')
			}
		case 'Z':
			key.WriteByte('S')
		case 'F', 'J', 'L', 'M', 'N', 'R':
			key.WriteByte(cur)
		}
		idx += skip
	}

	return key.String()
}

// similarText counts the characters two strings have in common: the longest common
// substring plus, recursively, the common characters to its left and to its right.
func similarText(a, b []rune) int {

	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	posA, posB, longest := 0, 0, 0
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > longest {
				posA, posB, longest = i, j, k
			}
		}
	}
	if longest == 0 {
		return 0
	}
	return longest + similarText(a[:posA], b[:posB]) + similarText(a[posA+longest:], b[posB+longest:])
}

// SimilarityRatio returns 2*common/(len(a)+len(b)) using similarText. Two empty strings
// yield 0.
func SimilarityRatio(a, b string) float64 {

	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return float64(2*similarText(ra, rb)) / float64(total)
}
