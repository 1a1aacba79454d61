package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alfredjeanlab/trail/internal/model"
	"github.com/alfredjeanlab/trail/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// printEntries renders one line per entry: "subject: [id] data". Pruned
// entries keep their slot so ordering stays visible.
func printEntries(subject string, entries []model.Entry) {
	for _, e := range entries {
		id := ui.RenderMuted("[" + e.ID + "]")
		if e.Tombstoned {
			fmt.Printf("%s: %s %s\n", subject, id, ui.RenderMuted("(pruned)"))
			continue
		}
		fmt.Printf("%s: %s %s\n", ui.RenderAccent(subject), id, e.Data)
	}
}
