package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aspect-build/attestid/appid"
	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var (
		format string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a canonical DER AttestationApplicationId",
		Long: `Decode the canonical DER form of an AttestationApplicationId and print the
package records and signing certificate digests it carries. Malformed and
non-canonical encodings are rejected.

Reads from the given file, or from stdin when the argument is omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runDecode(path, format, asJSON)
		},
	}

	cmd.Flags().StringVar(&format, "format", "raw", "Input format: raw|hex|base64")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the decoded structure as JSON")

	return cmd
}

func runDecode(path, format string, asJSON bool) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}
	der, err := parseInput(format, data)
	if err != nil {
		return err
	}

	id, err := appid.Unmarshal(der)
	if err != nil {
		return err
	}
	return printApplicationID(id, asJSON)
}

// printApplicationID prints a decoded structure to stdout, as key=value
// lines or as indented JSON. Entries appear in canonical (encoded) order.
func printApplicationID(id *appid.AttestationApplicationID, asJSON bool) error {
	if asJSON {
		type pkg struct {
			Name    string `json:"name"`
			Version int64  `json:"version"`
		}
		out := struct {
			Packages []pkg    `json:"packages"`
			Digests  []string `json:"signature_digests"`
		}{}
		for _, p := range id.Packages {
			out.Packages = append(out.Packages, pkg{Name: p.Name, Version: p.Version})
		}
		for _, d := range id.SignatureDigests {
			out.Digests = append(out.Digests, hex.EncodeToString(d))
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	for i, p := range id.Packages {
		fmt.Printf("package[%d]=%s version=%d\n", i, p.Name, p.Version)
	}
	for i, d := range id.SignatureDigests {
		fmt.Printf("digest[%d]=%s\n", i, hex.EncodeToString(d))
	}
	return nil
}
