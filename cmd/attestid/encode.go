package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/aspect-build/attestid/appid"
	"github.com/aspect-build/attestid/internal/logx"
	"github.com/aspect-build/attestid/pkginfo"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var (
		packages  []string
		digests   []string
		dbPath    string
		uid       uint32
		digestAlg string
		format    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "encode [flags]",
		Short: "Encode an AttestationApplicationId to canonical DER",
		Long: `Encode package records and signing certificate digests into the canonical
DER form of the AttestationApplicationId structure. The output is identical
for any insertion order of the same packages and digests.

Packages and digests are given directly with --package and --digest, or
collected from a package registry database with --db and --uid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(packages) > 0 && cmd.Flags().Changed("uid") {
				return fmt.Errorf("--package and --uid are mutually exclusive")
			}
			if len(packages) > 0 {
				return encodeExplicit(packages, digests, format, output)
			}
			if !cmd.Flags().Changed("uid") {
				return fmt.Errorf("nothing to encode: use --package or --db/--uid")
			}
			resolved, err := resolveDBPath(cmd, dbPath)
			if err != nil {
				return err
			}
			return encodeFromRegistry(cmd, resolved, uid, digestAlg, format, output)
		},
	}

	cmd.Flags().StringArrayVar(&packages, "package", nil, "Package as name=version (repeatable)")
	cmd.Flags().StringArrayVar(&digests, "digest", nil, "Signing certificate digest as hex (repeatable)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Package registry database path (or set ATTESTID_DB)")
	cmd.Flags().Uint32Var(&uid, "uid", 0, "Android UID to collect packages for")
	cmd.Flags().StringVar(&digestAlg, "digest-alg", "sha256", "Certificate digest algorithm: sha256|sha384|sha512")
	cmd.Flags().StringVar(&format, "format", "hex", "Output format: raw|hex|base64")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output path (default: stdout)")

	return cmd
}

// parsePackageFlag parses a --package value of the form name=version.
func parsePackageFlag(v string) (appid.PackageInfo, error) {
	name, ver, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return appid.PackageInfo{}, fmt.Errorf("invalid package %q (expected name=version)", v)
	}
	n, err := strconv.ParseInt(ver, 10, 64)
	if err != nil {
		return appid.PackageInfo{}, fmt.Errorf("invalid version in %q: %w", v, err)
	}
	return appid.PackageInfo{Name: name, Version: n}, nil
}

func encodeExplicit(packages, digests []string, format, output string) error {
	id := &appid.AttestationApplicationID{}
	for _, p := range packages {
		info, err := parsePackageFlag(p)
		if err != nil {
			return err
		}
		id.Packages = append(id.Packages, info)
	}
	for _, d := range digests {
		raw, err := hex.DecodeString(strings.TrimSpace(d))
		if err != nil {
			return fmt.Errorf("invalid digest %q: %w", d, err)
		}
		id.SignatureDigests = append(id.SignatureDigests, raw)
	}

	der, err := appid.Marshal(id)
	if err != nil {
		return err
	}

	out, err := formatOutput(format, der)
	if err != nil {
		return err
	}
	return writeOutput(output, out)
}

func encodeFromRegistry(cmd *cobra.Command, dbPath string, uid uint32, digestAlg, format, output string) error {
	alg, err := appid.ParseDigestAlg(digestAlg)
	if err != nil {
		return err
	}

	store, err := pkginfo.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	collector := appid.NewCollector(store, alg)
	id, err := collector.Collect(cmd.Context(), uid)
	if err != nil {
		return err
	}
	logx.Debugf("collected %d packages and %d digests for uid %d", len(id.Packages), len(id.SignatureDigests), uid)

	der, err := appid.Marshal(id)
	if err != nil {
		return err
	}

	out, err := formatOutput(format, der)
	if err != nil {
		return err
	}
	return writeOutput(output, out)
}
