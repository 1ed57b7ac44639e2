package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/coursetable/ferry/internal/bootstrap"
	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var Operator string

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token",
		Long:  "Issues a JWT for the operations API. When operator.passphrase_hash is set the passphrase is read from stdin first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.RequireOperatorSecret(); err != nil {
				return err
			}
			if cfg.Operator.PassphraseHash != "" {
				passphrase, err := readPassphrase(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if err := auth.CheckPassphrase(cfg.Operator.PassphraseHash, passphrase); err != nil {
					return err
				}
			}

			token, expiresIn, err := bootstrap.NewJWTService(cfg).GenerateToken(Operator)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			color.New(color.FgCyan).Fprintf(cmd.ErrOrStderr(), "Token for %s expires in %ds\n", Operator, expiresIn)
			return nil
		},
	}
	tokenCmd.Flags().StringVarP(&Operator, "operator", "o", "", "Operator name recorded in the token")
	_ = tokenCmd.MarkFlagRequired("operator")

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "hash",
		Short: "Print the bcrypt hash of a passphrase",
		Long:  "Reads a passphrase from stdin and prints the value for operator.passphrase_hash",
		RunE: func(cmd *cobra.Command, _ []string) error {
			passphrase, err := readPassphrase(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hash, err := auth.HashPassphrase(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})

	return tokenCmd
}

// readPassphrase reads the first line of in.
func readPassphrase(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Passphrase: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
