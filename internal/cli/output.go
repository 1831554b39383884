package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// printResponse writes the response data: JSON indented, text verbatim,
// nothing for an empty body.
func printResponse(w io.Writer, resp *apiclient.Response) error {
	if resp == nil {
		return nil
	}
	switch resp.Body.Kind {
	case apiclient.BodyEmpty:
		return nil
	case apiclient.BodyText:
		_, err := fmt.Fprintln(w, resp.Body.Value)
		return err
	default:
		return printJSON(w, resp.Data())
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// newGroup returns a parent command that only prints its help.
func newGroup(use, short string, children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:         use,
		Short:       short,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(children...)
	return cmd
}

// addPayloadFlags registers --data and --file for commands that send a body.
func addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "JSON body")
	cmd.Flags().StringP("file", "f", "", `file holding the JSON body ("-" for stdin)`)
}

// readPayload returns the --data or --file body. It must be a JSON object; the
// fields are sent as given so the backend stays the judge of its own schema.
func readPayload(cmd *cobra.Command) (json.RawMessage, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	var raw []byte
	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("use either --data or --file, not both")
	case data != "":
		raw = []byte(data)
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("a JSON body is required (--data or --file)")
	}

	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("decode body: not a JSON object")
	}
	return json.RawMessage(raw), nil
}
