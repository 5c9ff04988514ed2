package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const certificateDateFormat = "2006-01-02"

// NewCertificatesCommand creates the certificates command group.
func NewCertificatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "certificates",
		Aliases: []string{"certificate", "certs"},
		Short:   "Manage certificates",
		Long:    "List, upload and remove the certificates of the subscription",
	}

	cmd.AddCommand(newCertificatesListCommand())
	cmd.AddCommand(newCertificatesNewCommand())
	cmd.AddCommand(newCertificatesRemoveCommand())

	return cmd
}

func newCertificatesListCommand() *cobra.Command {
	var cloudGameID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List certificates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			collection, err := client.Certificates().List(ctx, cloudGameID)
			if err != nil {
				return fmt.Errorf("failed to list certificates: %w", err)
			}

			if len(collection.Certificates) == 0 && isTableOutput() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No certificates found")

				return nil
			}

			return render(cmd.OutOrStdout(), collection.Certificates, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "File", "Thumbprint", "Expires", "Cloud Games")

				for _, certificate := range collection.Certificates {
					expires := NotAvailable
					if !certificate.ExpirationDate.IsZero() {
						expires = certificate.ExpirationDate.Format(certificateDateFormat)
					}

					_ = table.Append(
						certificate.ID,
						certificate.Name,
						valueOrNA(certificate.FileName),
						valueOrNA(certificate.Thumbprint),
						expires,
						strings.Join(certificate.CloudGames, ", "),
					)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cloudGameID, "cloud-game-id", "", "only list certificates of this cloud game")

	return cmd
}

func newCertificatesNewCommand() *cobra.Command {
	var (
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Upload a certificate",
		Long: "Upload a PFX certificate to the subscription. The password is\n" +
			"prompted for when --password is not given and stdin is a terminal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open certificate: %w", err)
			}
			defer func() { _ = file.Close() }()

			if !cmd.Flags().Changed("password") && term.IsTerminal(int(os.Stdin.Fd())) {
				password, err = readSecret(cmd, "Certificate password: ")
				if err != nil {
					return err
				}
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			created, err := client.Certificates().Create(ctx, &gamesvc.CertificateRequest{
				Name:     name,
				FileName: filepath.Base(path),
				Password: password,
				Content:  file,
			})
			if err != nil {
				return fmt.Errorf("failed to upload certificate: %w", err)
			}

			return render(cmd.OutOrStdout(), created, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append("ID", created.ID)
				_ = table.Append("Name", name)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "certificate name (defaults to the file name)")
	cmd.Flags().StringVar(&password, "password", "", "certificate password")

	return cmd
}

func newCertificatesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove CERTIFICATE_ID",
		Aliases: []string{"delete", "rm"},
		Short:   "Remove a certificate",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			ok, err := client.Certificates().Remove(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to remove certificate: %w", err)
			}

			return renderConfirmation(cmd, ok, "Removed certificate "+args[0])
		},
	}
}
