//go:build dev

package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/aspect-build/attestid/pkginfo"
	"github.com/spf13/cobra"
)

func init() {
	devCommands = append(devCommands, newSeedCmd())
}

func newSeedCmd() *cobra.Command {
	var (
		dbPath   string
		uid      uint32
		packages []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "[dev] Seed a package registry database with sample packages",
		Long: `Create or open a package registry database and register sample packages
with freshly generated signing certificates. Without --package, a fixed
sample set is seeded: two packages sharing one signing certificate plus a
third with its own.

NOTE: This command is only available in dev builds (go build -tags dev).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seedRegistry(dbPath, uid, packages)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "attestid.db", "Package registry database path")
	cmd.Flags().Uint32Var(&uid, "uid", 10001, "Android UID to register the packages under")
	cmd.Flags().StringArrayVar(&packages, "package", nil, "Package as name=version (repeatable)")

	return cmd
}

func seedRegistry(dbPath string, uid uint32, packages []string) error {
	store, err := pkginfo.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	var recs []pkginfo.Record
	if len(packages) == 0 {
		shared, err := randomCert()
		if err != nil {
			return err
		}
		own, err := randomCert()
		if err != nil {
			return err
		}
		recs = []pkginfo.Record{
			{Name: "com.example.app", VersionCode: 3, SigningCerts: [][]byte{shared}},
			{Name: "com.example.helper", VersionCode: 1, SigningCerts: [][]byte{shared}},
			{Name: "com.example.other", VersionCode: 7, SigningCerts: [][]byte{own}},
		}
	} else {
		for _, p := range packages {
			info, err := parsePackageFlag(p)
			if err != nil {
				return err
			}
			cert, err := randomCert()
			if err != nil {
				return err
			}
			recs = append(recs, pkginfo.Record{
				Name:         info.Name,
				VersionCode:  info.Version,
				SigningCerts: [][]byte{cert},
			})
		}
	}

	for _, rec := range recs {
		if err := store.AddPackage(uid, rec); err != nil {
			return fmt.Errorf("register %s: %w", rec.Name, err)
		}
		fmt.Fprintf(os.Stderr, "Registered %s version=%d under uid %d\n", rec.Name, rec.VersionCode, uid)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Encode the attestation application id with:\n")
	fmt.Fprintf(os.Stderr, "  attestid encode --db %s --uid %d\n", dbPath, uid)

	return nil
}

func randomCert() ([]byte, error) {
	cert := make([]byte, 64)
	if _, err := rand.Read(cert); err != nil {
		return nil, fmt.Errorf("generate certificate bytes: %w", err)
	}
	return cert, nil
}
