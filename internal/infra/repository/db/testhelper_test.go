package db

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 需要本機 postgres，ORDER_ADMIN_INTEGRATION=1 才執行
func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("ORDER_ADMIN_INTEGRATION") != "1" {
		t.Skip("skipping postgres integration test; set ORDER_ADMIN_INTEGRATION=1")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := GetDbConn("order_admin", "localhost", "5432", "royce", "password")
	require.NoError(t, err)
	require.NoError(t, NewDbDao(db).InitMigrate())
	return db
}
