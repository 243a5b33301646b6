package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgFault is the subset of a postgres error worth logging, whichever driver raised it.
type pgFault struct {
	code, constraint, table, detail string
}

func pgFaultOf(err error) (pgFault, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgFault{pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgFault{string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail}, true
	}
	return pgFault{}, false
}

// LogFields flattens err into structured log fields: the message, the typed
// code when present, every wrapped layer and the postgres diagnostics.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_chain": chain,
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
	}
	if fault, ok := pgFaultOf(err); ok {
		fields["pg_code"] = fault.code
		if fault.constraint != "" {
			fields["pg_constraint"] = fault.constraint
		}
		if fault.table != "" {
			fields["pg_table"] = fault.table
		}
		if fault.detail != "" {
			fields["pg_detail"] = fault.detail
		}
	}
	return fields
}
