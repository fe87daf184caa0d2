package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Pragma is one durability setting in the connection contract.
type Pragma struct {
	Name  string
	Value string   // value applied at open
	Want  []string // acceptable values when read back
}

// Statement returns the PRAGMA statement that applies this setting.
func (p Pragma) Statement() string {
	return fmt.Sprintf("PRAGMA %s = %s", p.Name, p.Value)
}

// PragmaContract is the full set of durability pragmas every ledger
// connection must carry. WAL keeps concurrent readers (health checks,
// CLI inspection) working alongside the single writer; synchronous
// NORMAL trades a fsync per commit for WAL-boundary durability;
// busy_timeout absorbs transient lock contention; the autocheckpoint
// threshold bounds WAL growth.
func PragmaContract(busyTimeout time.Duration) []Pragma {
	ms := fmt.Sprintf("%d", busyTimeout.Milliseconds())
	return []Pragma{
		// In-memory databases report journal_mode "memory"; accepted so
		// tests against ":memory:" pass verification.
		{Name: "journal_mode", Value: "WAL", Want: []string{"wal", "memory"}},
		{Name: "synchronous", Value: "NORMAL", Want: []string{"1"}},
		{Name: "foreign_keys", Value: "ON", Want: []string{"1"}},
		{Name: "busy_timeout", Value: ms, Want: []string{ms}},
		{Name: "wal_autocheckpoint", Value: "1000", Want: []string{"1000"}},
	}
}

// PragmaMismatch reports one live setting that differs from the contract.
type PragmaMismatch struct {
	Name string
	Want string
	Got  string
}

func (m PragmaMismatch) String() string {
	return fmt.Sprintf("pragma %s = %s (want %s)", m.Name, m.Got, m.Want)
}

// VerifyPragmas inspects the live connection configuration and returns
// every pragma that does not match the expected contract. An empty
// slice means the connection honors the contract. Read-only; used by
// health-check tooling.
func VerifyPragmas(db *sql.DB, busyTimeout time.Duration) ([]PragmaMismatch, error) {
	var mismatches []PragmaMismatch
	for _, p := range PragmaContract(busyTimeout) {
		var got string
		if err := db.QueryRow("PRAGMA " + p.Name).Scan(&got); err != nil {
			return nil, fmt.Errorf("reading pragma %s: %w", p.Name, err)
		}
		got = strings.ToLower(strings.TrimSpace(got))

		ok := false
		for _, want := range p.Want {
			if got == want {
				ok = true
				break
			}
		}
		if !ok {
			mismatches = append(mismatches, PragmaMismatch{
				Name: p.Name,
				Want: strings.Join(p.Want, "|"),
				Got:  got,
			})
		}
	}
	return mismatches, nil
}
