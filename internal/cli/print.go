package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"taskboard/pkg/board"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// markers renders the derived markers of an item.
func markers(it board.Item) string {
	var f []string
	if it.Overdue {
		f = append(f, "OVERDUE")
	}
	if it.Blocked {
		f = append(f, "BLOCKED by "+strings.Join(it.BlockedBy, ", "))
	}
	if it.OwnerName != "" {
		f = append(f, "@"+it.OwnerName)
	}
	if len(f) == 0 {
		return ""
	}
	return "  [" + strings.Join(f, "] [") + "]"
}

func printList(out io.Writer, items []board.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	for _, it := range items {
		fmt.Fprintf(out, "%-8s  %-12s %-7s %s%s%s\n",
			shortID(it.ID), it.Status, it.Priority, strings.Repeat("  ", it.Depth), it.Title, markers(it))
	}
}

func printKanban(out io.Writer, cols []board.Column) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "== %s (%d) ==\n", col.Label, len(col.Items))
		for _, it := range col.Items {
			fmt.Fprintf(out, "  %-8s  %-7s %s%s\n", shortID(it.ID), it.Priority, it.Title, markers(it))
		}
	}
}
