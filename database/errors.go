/*
 * Copyright 2026 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SQLError classifies a driver error into a database-agnostic category.
// Errors from the mapping library always propagate unchanged; Classify is a
// helper for callers that want to branch on the failure kind.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoTableErr
	NoColumnErr
	NoIndexErr
	ExistTableErr
	ExistIndexErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var mysqlErrorCodes = map[uint16]SQLError{
	1049: NoTableErr,
	1054: NoColumnErr,
	1091: NoIndexErr,
	1050: ExistTableErr,
	1061: ExistIndexErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
}

// messagePatterns match postgres SQLSTATE text and sqlite message shapes;
// every substring in a group must be present.
var messagePatterns = []struct {
	substrings []string
	err        SQLError
}{
	{[]string{"sqlstate 42p01"}, NoTableErr},
	{[]string{"undefined table"}, NoTableErr},
	{[]string{"no such table"}, NoTableErr},
	{[]string{"sqlstate 42703"}, NoColumnErr},
	{[]string{"undefined column"}, NoColumnErr},
	{[]string{"no such column"}, NoColumnErr},
	{[]string{"sqlstate 42704"}, NoIndexErr},
	{[]string{"no such index"}, NoIndexErr},
	{[]string{"does not exist", "index"}, NoIndexErr},
	{[]string{"already exists", "index"}, ExistIndexErr},
	{[]string{"already exists", "table"}, ExistTableErr},
	{[]string{"already exists", "relation"}, ExistTableErr},
	{[]string{"sqlstate 23505"}, DuplicateKeyErr},
	{[]string{"duplicate key value"}, DuplicateKeyErr},
	{[]string{"unique constraint failed"}, DuplicateKeyErr},
	{[]string{"sqlstate 23502"}, NotNullViolationErr},
	{[]string{"not-null constraint"}, NotNullViolationErr},
	{[]string{"not null constraint failed"}, NotNullViolationErr},
	{[]string{"sqlstate 23503"}, ForeignKeyViolationErr},
	{[]string{"foreign key violation"}, ForeignKeyViolationErr},
	{[]string{"foreign key constraint failed"}, ForeignKeyViolationErr},
	{[]string{"sqlstate 23514"}, CheckConstraintViolationErr},
	{[]string{"check constraint"}, CheckConstraintViolationErr},
	{[]string{"sqlstate 22001"}, DataTruncatedErr},
	{[]string{"string data right truncation"}, DataTruncatedErr},
	{[]string{"data truncated"}, DataTruncatedErr},
	{[]string{"sqlstate 42804"}, InvalidTypeCastErr},
	{[]string{"datatype mismatch"}, InvalidTypeCastErr},
}

// Classify reports whether err is a recognizable SQL error and its category.
func Classify(err error) (SQLError, bool) {
	if err == nil {
		return UnknownErr, false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrorCodes[mysqlErr.Number]; ok {
			return kind, true
		}
		return UnknownErr, true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range messagePatterns {
		matched := true
		for _, sub := range p.substrings {
			if !strings.Contains(msg, sub) {
				matched = false
				break
			}
		}
		if matched {
			return p.err, true
		}
	}
	return UnknownErr, false
}
