package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/csg33k/pledge-wall/internal/adapters/pdf"
	"github.com/csg33k/pledge-wall/internal/adapters/raster"
	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/ports"
)

// certificateCommand renders a certificate offline, without a database.
func certificateCommand() *cobra.Command {
	var (
		name        string
		commitments []string
		format      string
		outDir      string
		fontPath    string
		boldPath    string
	)
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Render a pledge certificate to a PNG or PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			for _, c := range commitments {
				if !domain.InCatalog(c) {
					return fmt.Errorf("%s%s", domain.MsgUnknownPrefix, c)
				}
			}

			var r ports.CertificateRenderer
			switch strings.ToLower(format) {
			case "png":
				png, err := raster.New(raster.WithFontFiles(fontPath, boldPath))
				if err != nil {
					return err
				}
				r = png
			case "pdf":
				r = pdf.New()
			default:
				return fmt.Errorf("unknown format %q (want png or pdf)", format)
			}

			c := certificate.New(domain.Draft{Name: name, Commitments: commitments}, time.Now())
			path := filepath.Join(outDir, certificate.Filename(c.Name, r.Extension()))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := r.Render(cmd.Context(), c, f); err != nil {
				f.Close()
				os.Remove(path)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "pledger name printed on the certificate")
	cmd.Flags().StringArrayVar(&commitments, "commitments", nil, "catalog commitment (repeatable)")
	cmd.Flags().StringVar(&format, "format", "png", "output format: png or pdf")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringVar(&fontPath, "font", "", "TTF file for regular text")
	cmd.Flags().StringVar(&boldPath, "font-bold", "", "TTF file for bold text")
	return cmd
}
