package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/events"
	"github.com/alfredjeanlab/trail/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [subject]",
	Short: "Stream audit notifications, optionally filtered to one subject",
	Args:  cobra.MaximumNArgs(1),
	// Only NATS is needed here; skip the store dial.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setup()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}

		url := resolveNATS()
		if url == "" {
			return fmt.Errorf("no NATS URL: pass --nats or set TRAIL_NATS_URL")
		}

		sub, err := events.NewNATSSubscriber(url,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(events.TopicAll)
		if err != nil {
			return fmt.Errorf("subscribing: %w", err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				printNotification(msg, filter)
			}
		}
	},
}

// notification is the superset of all payload shapes; only the fields the
// topic actually carries are populated.
type notification struct {
	ID       string   `json:"id,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
	UpToID   string   `json:"up_to_id,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
}

func printNotification(msg events.Message, filter string) {
	var n notification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		logger.Warn("malformed notification", "topic", msg.Topic, "error", err)
		return
	}
	if filter != "" && n.Subject != filter && !slices.Contains(n.Subjects, filter) {
		return
	}
	if jsonOutput {
		fmt.Printf("{\"topic\":%q,\"payload\":%s}\n", msg.Topic, msg.Data)
		return
	}
	switch msg.Topic {
	case events.TopicEventLogged:
		fmt.Printf("%s id=%s subjects=%v\n", ui.RenderAccent("logged"), n.ID, n.Subjects)
	case events.TopicSubjectTruncated:
		fmt.Printf("%s subject=%s removed=%d deleted=%d\n", ui.RenderAccent("truncated"), n.Subject, len(n.Removed), len(n.Deleted))
	case events.TopicSubjectPurged:
		fmt.Printf("%s subject=%s to=%s removed=%d deleted=%d\n", ui.RenderAccent("purged"), n.Subject, n.UpToID, len(n.Removed), len(n.Deleted))
	default:
		fmt.Printf("%s %s\n", msg.Topic, msg.Data)
	}
}
