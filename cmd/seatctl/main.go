// seatctl es el CLI de operaciones contra la API de seatd.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("SEATCTL_URL", "http://localhost:8080")
		token   = envOr("SEATCTL_TOKEN", "")
		out     = envOr("SEATCTL_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "seatctl",
		Short: "CLI de operaciones para seatd",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("falta token (flag --token o env SEATCTL_TOKEN)")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base de seatd (env SEATCTL_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "bearer token (env SEATCTL_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, Token: token, OutFormat: out, HTTP: &http.Client{Timeout: 30 * time.Second}}

	var room, slot string

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoca el seat de un slot en una sala",
		RunE: func(cmd *cobra.Command, args []string) error {
			if room == "" || slot == "" {
				return fmt.Errorf("se requieren --room y --slot")
			}
			body, _ := json.Marshal(map[string]string{"room": room, "slotId": slot})
			status, resp, err := cl.do(http.MethodPost, "/v1/seats/revoke", body)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			if status >= 400 {
				return fmt.Errorf("revoke falló con status %d", status)
			}
			return nil
		},
	}
	revokeCmd.Flags().StringVar(&room, "room", "", "id de la sala")
	revokeCmd.Flags().StringVar(&slot, "slot", "", "slot a revocar (ej: collector_03)")
	root.AddCommand(revokeCmd)

	seatsCmd := &cobra.Command{
		Use:   "seats",
		Short: "Lista los seats vivos de una sala",
		RunE: func(cmd *cobra.Command, args []string) error {
			if room == "" {
				return fmt.Errorf("se requiere --room")
			}
			status, resp, err := cl.do(http.MethodGet, "/v1/rooms/"+url.PathEscape(room)+"/seats", nil)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			if status >= 400 {
				return fmt.Errorf("seats falló con status %d", status)
			}
			return nil
		},
	}
	seatsCmd.Flags().StringVar(&room, "room", "", "id de la sala")
	root.AddCommand(seatsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seatctl:", err)
		os.Exit(1)
	}
}
