// cachedump reads the generation cache database produced by bidic and prints
// its records in human-readable form for inspection.
//
// The cache is a plain SQLite database with one row per (source, direction)
// pair recording content hashes of the source and the produced output.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func main() {
	schema := flag.Bool("schema", false, "print table definitions before records")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cachedump [-schema] <cache.db>\n\n")
		fmt.Fprintf(os.Stderr, "Reads bidic generation cache database and prints its records.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := dump(flag.Arg(0), *schema); err != nil {
		fmt.Fprintf(os.Stderr, "cachedump: %v\n", err)
		os.Exit(1)
	}
}

func dump(path string, withSchema bool) error {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return fmt.Errorf("unable to open cache database: %w", err)
	}
	defer conn.Close()

	if withSchema {
		err := sqlitex.ExecuteTransient(conn, `SELECT sql FROM sqlite_master WHERE type = 'table' ORDER BY name`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				fmt.Printf("%s;\n\n", stmt.ColumnText(0))
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("unable to read schema: %w", err)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "SOURCE\tDIR\tOUTPUT\tSOURCE HASH\tOUTPUT HASH\tRUN\tUPDATED")

	count := 0
	err = sqlitex.ExecuteTransient(conn,
		`SELECT source, direction, output, source_hash, output_hash, run_id, updated_at FROM outputs ORDER BY source, direction`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count++
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					stmt.ColumnText(0), stmt.ColumnText(1), stmt.ColumnText(2),
					short(stmt.ColumnText(3)), short(stmt.ColumnText(4)),
					short(stmt.ColumnText(5)), localTime(stmt.ColumnText(6)))
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("unable to read records: %w", err)
	}

	w.Flush()
	fmt.Printf("\n%d record(s)\n", count)
	return nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func localTime(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
