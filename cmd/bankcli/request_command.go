package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-bank-client/apiclient"
	"github.com/spf13/cobra"
)

func newRequestCommand(a *app) *cobra.Command {
	var data string
	var params []string
	c := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send an arbitrary authenticated request and print the JSON reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := apiclient.Request{
				Method: strings.ToUpper(args[0]),
				Path:   args[1],
			}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				req.Data = json.RawMessage(data)
			}
			if len(params) > 0 {
				req.Params = url.Values{}
				for _, p := range params {
					k, v, ok := strings.Cut(p, "=")
					if !ok {
						return fmt.Errorf("--param %q must be key=value", p)
					}
					req.Params.Add(k, v)
				}
			}

			resp, err := a.client.Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			body := bytes.TrimSpace(resp.Body)
			if len(body) == 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\n", resp.StatusCode)
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, body, "", "  "); err != nil {
				out.Reset()
				out.Write(body)
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	c.Flags().StringVar(&data, "data", "", "JSON request body")
	c.Flags().StringArrayVar(&params, "param", nil, "query parameter key=value (repeatable)")
	return c
}
