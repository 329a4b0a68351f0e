/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ctlcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-wallet-go/pkg/client/walletrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

const (
	passwordFlagName = "password"
	typeFlagName     = "type"
	idFlagName       = "id"
	jsonPathFlagName = "jsonpath"
	equalsFlagName   = "equals"
)

func walletCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the active wallet of the agent",
	}

	cmd.AddCommand(
		walletCreateCmd(flags),
		walletVoidCmd(flags, "load", "Load the active wallet from its storage", (*walletrpc.Client).Load),
		walletVoidCmd(flags, "sync", "Persist the active wallet to its storage", (*walletrpc.Client).Sync),
		walletVoidCmd(flags, "remove-all", "Remove every document", (*walletrpc.Client).RemoveAll),
		walletPasswordCmd(flags, "lock", "Seal the secrets of the wallet", (*walletrpc.Client).Lock),
		walletPasswordCmd(flags, "unlock", "Unseal the secrets of the wallet", (*walletrpc.Client).Unlock),
		walletDocumentCmd(flags, "add", "Add the document read from a file", (*walletrpc.Client).Add),
		walletDocumentCmd(flags, "update", "Update the document read from a file", (*walletrpc.Client).Update),
		walletDocumentCmd(flags, "remove", "Remove the document read from a file", (*walletrpc.Client).Remove),
		walletIDCmd(flags, "get", "Print the document with an id",
			func(c *walletrpc.Client, in *invocation) (interface{}, error) {
				return c.GetDocumentByID(in.ctx, in.args[0])
			}),
		walletIDCmd(flags, "resolve", "Print a document followed by its correlated documents",
			func(c *walletrpc.Client, in *invocation) (interface{}, error) {
				return c.ResolveCorrelations(in.ctx, in.args[0])
			}),
		&cobra.Command{
			Use:   "status",
			Short: "Print the lock state",
			Args:  cobra.NoArgs,
			RunE: flags.run(func(in *invocation) (interface{}, error) {
				status, err := walletrpc.New(in.caller).Status(in.ctx)
				if err != nil {
					return nil, err
				}

				return map[string]backend.Status{"status": status}, nil
			}),
		},
		&cobra.Command{
			Use:   "to-json",
			Short: "Print every document",
			Args:  cobra.NoArgs,
			RunE: flags.run(func(in *invocation) (interface{}, error) {
				return walletrpc.New(in.caller).ToJSON(in.ctx)
			}),
		},
		walletQueryCmd(flags),
		walletCreateAccountsCmd(flags),
		walletExportAccountCmd(flags),
		walletExportCmd(flags),
		walletImportCmd(flags),
	)

	return cmd
}

func walletCreateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the active wallet, named by --wallet-id",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().String(typeFlagName, string(backend.Memory), "backend type of the wallet")

	cmd.RunE = flags.run(func(in *invocation) (interface{}, error) {
		if flags.walletID() == "" {
			return nil, fmt.Errorf("--%s is required", walletIDFlagName)
		}

		typeName, err := in.cmd.Flags().GetString(typeFlagName)
		if err != nil {
			return nil, err
		}

		backendType, err := backend.ParseType(typeName)
		if err != nil {
			return nil, err
		}

		return nil, walletrpc.New(in.caller).Create(in.ctx, flags.walletID(), backendType)
	})

	return cmd
}

func walletVoidCmd(flags *rootFlags, use, short string,
	call func(*walletrpc.Client, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: flags.run(func(in *invocation) (interface{}, error) {
			return nil, call(walletrpc.New(in.caller), in.ctx)
		}),
	}
}

func walletPasswordCmd(flags *rootFlags, use, short string,
	call func(*walletrpc.Client, context.Context, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
	}

	cmd.Flags().String(passwordFlagName, "", "wallet password")

	cmd.RunE = flags.run(func(in *invocation) (interface{}, error) {
		password, err := in.cmd.Flags().GetString(passwordFlagName)
		if err != nil {
			return nil, err
		}

		return nil, call(walletrpc.New(in.caller), in.ctx, password)
	})

	return cmd
}

func walletDocumentCmd(flags *rootFlags, use, short string,
	call func(*walletrpc.Client, context.Context, *walletdoc.Document) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <document-file|->",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: flags.run(func(in *invocation) (interface{}, error) {
			doc := &walletdoc.Document{}

			if err := in.decode(0, doc); err != nil {
				return nil, err
			}

			return nil, call(walletrpc.New(in.caller), in.ctx, doc)
		}),
	}
}

func walletIDCmd(flags *rootFlags, use, short string,
	call func(*walletrpc.Client, *invocation) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <document-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: flags.run(func(in *invocation) (interface{}, error) {
			return call(walletrpc.New(in.caller), in)
		}),
	}
}

func walletQueryCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the documents matching every given predicate",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().String(idFlagName, "", "document id")
	cmd.Flags().String(typeFlagName, "", "document type")
	cmd.Flags().String(jsonPathFlagName, "", "JSONPath expression, ex: $.correlation[?(@ == 'urn:uuid:1')]")
	cmd.Flags().StringToString(equalsFlagName, nil, "top level members, ex: name=savings")

	cmd.RunE = flags.run(func(in *invocation) (interface{}, error) {
		q, err := queryFromFlags(in.cmd)
		if err != nil {
			return nil, err
		}

		return walletrpc.New(in.caller).Query(in.ctx, q)
	})

	return cmd
}

func queryFromFlags(cmd *cobra.Command) (*walletdoc.Query, error) {
	q := &walletdoc.Query{}

	var err error

	if q.ID, err = cmd.Flags().GetString(idFlagName); err != nil {
		return nil, err
	}

	if q.Type, err = cmd.Flags().GetString(typeFlagName); err != nil {
		return nil, err
	}

	if q.JSONPath, err = cmd.Flags().GetString(jsonPathFlagName); err != nil {
		return nil, err
	}

	equals, err := cmd.Flags().GetStringToString(equalsFlagName)
	if err != nil {
		return nil, err
	}

	for name, raw := range equals {
		if q.Equals == nil {
			q.Equals = map[string]interface{}{}
		}

		// values are JSON when they parse as JSON, plain strings otherwise.
		var value interface{}
		if json.Unmarshal([]byte(raw), &value) != nil {
			value = strings.TrimSpace(raw)
		}

		q.Equals[name] = value
	}

	return q, nil
}

func walletCreateAccountsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create-accounts <params-file|->",
		Short: "Create the address, currency, mnemonic and keyring pair documents of an account",
		Args:  cobra.ExactArgs(1),
		RunE: flags.run(func(in *invocation) (interface{}, error) {
			params := &wallet.CreateAccountDocumentsParams{}

			if err := in.decode(0, params); err != nil {
				return nil, err
			}

			return walletrpc.New(in.caller).CreateAccountDocuments(in.ctx, params)
		}),
	}
}

func walletExportAccountCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-account <address>",
		Short: "Print the keyring pair of an account encrypted with --password",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().String(passwordFlagName, "", "password of the exported pair")

	cmd.RunE = flags.run(func(in *invocation) (interface{}, error) {
		password, err := in.cmd.Flags().GetString(passwordFlagName)
		if err != nil {
			return nil, err
		}

		return walletrpc.New(in.caller).ExportAccount(in.ctx, in.args[0], password)
	})

	return cmd
}

func walletExportCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the wallet backup encrypted with --password",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().String(passwordFlagName, "", "password of the backup")

	cmd.RunE = flags.run(func(in *invocation) (interface{}, error) {
		password, err := in.cmd.Flags().GetString(passwordFlagName)
		if err != nil {
			return nil, err
		}

		return walletrpc.New(in.caller).ExportWallet(in.ctx, password)
	})

	return cmd
}

func walletImportCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <backup-file|->",
		Short: "Replace the documents of the wallet with a backup",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().String(passwordFlagName, "", "password of the backup")

	cmd.RunE = flags.run(func(in *invocation) (interface{}, error) {
		password, err := in.cmd.Flags().GetString(passwordFlagName)
		if err != nil {
			return nil, err
		}

		data, err := readInput(in.cmd, in.args[0])
		if err != nil {
			return nil, err
		}

		return nil, walletrpc.New(in.caller).ImportWallet(in.ctx, data, password)
	})

	return cmd
}
