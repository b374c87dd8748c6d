package mysql

import (
	"os"
	"testing"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/engine/storage/test"

	_ "github.com/go-sql-driver/mysql"
)

func TestMySQLStorage(t *testing.T) {
	testDSN := os.Getenv("NANOINTAKE_MYSQL_STORAGE_TEST_DSN")
	if testDSN == "" {
		t.Skip("NANOINTAKE_MYSQL_STORAGE_TEST_DSN not set")
	}

	s, err := New(WithDSN(testDSN))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// to test using an existing DB/DSN:
	//
	// DELETE FROM intake_flows;
	// DELETE FROM intake_sessions;
	//
	// the expiry test counts every expired session in the database

	test.TestFlowStorage(t, func() storage.AllStorage { return s })
}
