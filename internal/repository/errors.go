// Package repository implements the storage layer on top of MySQL.
// Sentinel error values defined here allow higher layers such as the
// attendance service and handlers to distinguish between different
// failure scenarios without inspecting driver-specific error strings.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when registering with an email address
// that already belongs to another user. Handlers should translate
// this into an HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")

// isSerialization reports whether err is a MySQL deadlock (1213) or
// lock wait timeout (1205), the two errors a transaction contending
// for a game row lock can hit. Such errors are mapped to
// service.ErrSerialization so the attendance service can retry them.
func isSerialization(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1213 || me.Number == 1205
}
