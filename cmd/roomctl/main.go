// Command roomctl is an operator convenience CLI over the admin HTTP
// surface (spec §4.5 plus the supplemental /rooms introspection endpoint):
// it is not a client of the WebSocket signaling protocol itself.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var addr string

type roomRow struct {
	Code        string `json:"code"`
	MemberCount int    `json:"memberCount"`
	State       string `json:"state"`
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "roomctl",
		Short: "Operator CLI for the rtc-signal admin endpoints",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "base URL of the rtc-signal server")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newRoomsCmd())
	root.AddCommand(newRemoveCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Ask the server to mint a fresh room code",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient().Get(addr + "/generate-code")
			if err != nil {
				return fmt.Errorf("generate-code: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
			}
			fmt.Println(string(body))
			return nil
		},
	}
}

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List currently registered rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient().Get(addr + "/rooms")
			if err != nil {
				return fmt.Errorf("rooms: %w", err)
			}
			defer resp.Body.Close()

			var rooms []roomRow
			if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Code", "Members", "State"})
			for _, r := range rooms {
				t.AppendRow(table.Row{r.Code, r.MemberCount, r.State})
			}
			t.Render()
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm CODE",
		Short: "Forcibly evict a room, bypassing the empty-room GC grace period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequest(http.MethodDelete, addr+"/rooms/"+args[0], nil)
			if err != nil {
				return fmt.Errorf("building request: %w", err)
			}
			resp, err := httpClient().Do(req)
			if err != nil {
				return fmt.Errorf("rooms/%s: %w", args[0], err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "roomctl:", err)
		os.Exit(1)
	}
}
