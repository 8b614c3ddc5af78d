package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/aspect-build/attestid/appid"
	"github.com/aspect-build/attestid/internal/attestext"
	"github.com/aspect-build/attestid/internal/logx"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <certificate>",
		Short: "Extract the AttestationApplicationId from an attestation certificate",
		Long: `Read an X.509 attestation certificate (PEM or raw DER), locate the Android
key attestation extension, and decode the AttestationApplicationId recorded
in its software-enforced or TEE-enforced authorization list.

Reads from stdin when the argument is "-".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the decoded structure as JSON")

	return cmd
}

func runInspect(path string, asJSON bool) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}

	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return fmt.Errorf("unexpected PEM block %q (expected CERTIFICATE)", block.Type)
		}
		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("parse certificate: %w", err)
	}
	logx.Debugf("certificate subject=%q serial=%s", cert.Subject, cert.SerialNumber)

	raw, err := attestext.FromCertificate(cert)
	if err != nil {
		return err
	}

	id, err := appid.Unmarshal(raw)
	if err != nil {
		return err
	}
	return printApplicationID(id, asJSON)
}
