// cachedump inspects result cache databases produced by the sqlite cache
// backend. It walks the schema and lists stored entries without going
// through the cache API, so it stays usable even when the entry layout and
// the program disagree about versions.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	treew "brandcss/utils/debug"
)

func main() {
	all := flag.Bool("all", false, "enable all dump flags (-schema, -entries)")
	schema := flag.Bool("schema", false, "dump database schema")
	entries := flag.Bool("entries", false, "list cached entries, newest first")
	changes := flag.Bool("changes", false, "include stored changelog JSON with every listed entry")
	limit := flag.Int("limit", 0, "list at most N entries, 0 lists everything")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cachedump [-all] [-schema] [-entries] [-changes] [-limit N] <cache.db>\n\n")
		fmt.Fprintf(os.Stderr, "Reads a result cache database and prints its content to STDOUT.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *all {
		*schema = true
		*entries = true
	}
	if *changes {
		*entries = true
	}
	if !*schema && !*entries {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	path := flag.Arg(0)
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer conn.Close()

	tw := treew.NewTreeWriter()
	tw.Line(0, "database: %s", path)

	if *schema {
		if err := dumpSchema(conn, tw); err != nil {
			fmt.Fprintf(os.Stderr, "dump schema: %v\n", err)
			os.Exit(1)
		}
	}
	if *entries {
		if err := dumpEntries(conn, tw, *limit, *changes); err != nil {
			fmt.Fprintf(os.Stderr, "dump entries: %v\n", err)
			os.Exit(1)
		}
	}

	if _, err := os.Stdout.WriteString(tw.String()); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}

func dumpSchema(conn *sqlite.Conn, tw *treew.TreeWriter) error {
	return sqlitex.Execute(conn,
		`SELECT type, name, sql FROM sqlite_master WHERE sql IS NOT NULL ORDER BY type DESC, name`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			tw.Line(0, "%s %s:", stmt.ColumnText(0), stmt.ColumnText(1))
			for _, line := range strings.Split(stmt.ColumnText(2), "\n") {
				if line = strings.TrimRight(line, " \t"); len(line) > 0 {
					tw.Line(1, "%s", strings.ReplaceAll(line, "\t", "    "))
				}
			}
			return nil
		}})
}

func dumpEntries(conn *sqlite.Conn, tw *treew.TreeWriter, limit int, withChanges bool) error {
	if limit <= 0 {
		// negative limit means no limit to sqlite
		limit = -1
	}

	count := 0
	err := sqlitex.Execute(conn,
		`SELECT signature, engine_version, ruleset_version, created_at, hit_count, length(code), changes
		 FROM entries ORDER BY created_at DESC, signature LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count++
				tw.Line(0, "%s:", stmt.ColumnText(0))
				tw.Line(1, "engine: %s", stmt.ColumnText(1))
				if ruleset := stmt.ColumnText(2); len(ruleset) > 0 {
					tw.Line(1, "ruleset: %s", ruleset)
				}
				tw.Line(1, "created: %s", time.Unix(stmt.ColumnInt64(3), 0).UTC().Format(time.RFC3339))
				tw.Line(1, "hits: %d", stmt.ColumnInt64(4))
				tw.Line(1, "code: %d bytes", stmt.ColumnInt64(5))
				if withChanges {
					raw, err := io.ReadAll(stmt.ColumnReader(6))
					if err != nil {
						return fmt.Errorf("read changes for %s: %w", stmt.ColumnText(0), err)
					}
					if len(raw) > 0 {
						tw.TextBlock(1, "changes", string(raw))
					}
				}
				return nil
			},
		})
	if err != nil {
		return err
	}
	tw.Line(0, "entries: %d", count)
	return nil
}
