package buildinfo

import (
	"testing"

	"github.com/flarebyte/bankpull/cli"
)

func withValues(t *testing.T, version, commit, date, cliVersion string) {
	t.Helper()
	oldV, oldC, oldD, oldCLI := Version, Commit, Date, cli.Version
	Version, Commit, Date, cli.Version = version, commit, date, cliVersion
	t.Cleanup(func() {
		Version, Commit, Date, cli.Version = oldV, oldC, oldD, oldCLI
	})
}

func TestSummary_Dev(t *testing.T) {
	withValues(t, "", "", "", "")
	if got := Summary(); got != "dev" {
		t.Fatalf("want dev got %q", got)
	}
}

func TestSummary_CLIFallbackAndCommit(t *testing.T) {
	withValues(t, "", "0123456789abcdef", "2026-02-09", "1.2.3")
	if got := Summary(); got != "1.2.3 (commit=0123456, date=2026-02-09)" {
		t.Fatalf("unexpected summary %q", got)
	}
	if info := Current(); info.Version != "1.2.3" || info.Commit != "0123456789abcdef" {
		t.Fatalf("unexpected info %+v", info)
	}
}
