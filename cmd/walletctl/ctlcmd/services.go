/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ctlcmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-wallet-go/pkg/client/didrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/client/dockrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/client/keyringrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

const (
	keyTypeFlagName    = "key-type"
	derivePathFlagName = "derive-path"
	ss58FlagName       = "ss58-format"
	propsFlagName      = "props"
)

func addKeyFlags(cmd *cobra.Command, derivePath bool) {
	cmd.Flags().String(keyTypeFlagName, string(keyring.ED25519), "key type of the pair")

	if derivePath {
		cmd.Flags().String(derivePathFlagName, "", "derivation path, ex: //hard/soft")
	}
}

func keyFlags(cmd *cobra.Command) (keyring.KeyType, string, error) {
	keyType, err := cmd.Flags().GetString(keyTypeFlagName)
	if err != nil {
		return "", "", err
	}

	var derivePath string

	if cmd.Flags().Lookup(derivePathFlagName) != nil {
		if derivePath, err = cmd.Flags().GetString(derivePathFlagName); err != nil {
			return "", "", err
		}
	}

	return keyring.KeyType(keyType), derivePath, nil
}

func keyringCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Derive and keep key pairs in the keyring of the agent",
	}

	initialize := &cobra.Command{
		Use:   "initialize",
		Short: "Initialize the keyring, optionally setting the SS58 address format",
		Args:  cobra.NoArgs,
	}
	initialize.Flags().Uint16(ss58FlagName, 0, "SS58 address format, ex: 42")
	initialize.RunE = flags.run(func(in *invocation) (interface{}, error) {
		var format *uint16

		if in.cmd.Flags().Changed(ss58FlagName) {
			f, err := in.cmd.Flags().GetUint16(ss58FlagName)
			if err != nil {
				return nil, err
			}

			format = &f
		}

		return nil, keyringrpc.New(in.caller).Initialize(in.ctx, format)
	})

	addMnemonic := &cobra.Command{
		Use:   "add-mnemonic <mnemonic>",
		Short: "Derive a pair from a mnemonic and keep it",
		Args:  cobra.ExactArgs(1),
	}
	addKeyFlags(addMnemonic, true)
	addMnemonic.RunE = flags.run(func(in *invocation) (interface{}, error) {
		keyType, derivePath, err := keyFlags(in.cmd)
		if err != nil {
			return nil, err
		}

		return keyringrpc.New(in.caller).AddFromMnemonic(in.ctx, in.args[0], derivePath, keyType, nil)
	})

	addJSON := &cobra.Command{
		Use:   "add-json <pair-file|->",
		Short: "Import an exported pair",
		Args:  cobra.ExactArgs(1),
	}
	addJSON.Flags().String(passwordFlagName, "", "password of the exported pair")
	addJSON.RunE = flags.run(func(in *invocation) (interface{}, error) {
		password, err := in.cmd.Flags().GetString(passwordFlagName)
		if err != nil {
			return nil, err
		}

		data, err := readInput(in.cmd, in.args[0])
		if err != nil {
			return nil, err
		}

		return keyringrpc.New(in.caller).AddFromJSON(in.ctx, data, password)
	})

	pair := &cobra.Command{
		Use:   "pair <mnemonic>",
		Short: "Print the public view of a pair without keeping it",
		Args:  cobra.ExactArgs(1),
	}
	addKeyFlags(pair, true)
	pair.RunE = flags.run(func(in *invocation) (interface{}, error) {
		keyType, derivePath, err := keyFlags(in.cmd)
		if err != nil {
			return nil, err
		}

		return keyringrpc.New(in.caller).GetKeyringPair(in.ctx, in.args[0], derivePath, keyType)
	})

	address := &cobra.Command{
		Use:   "address <uri>",
		Short: "Print the address of a secret URI",
		Args:  cobra.ExactArgs(1),
	}
	addKeyFlags(address, false)
	address.RunE = flags.run(func(in *invocation) (interface{}, error) {
		keyType, _, err := keyFlags(in.cmd)
		if err != nil {
			return nil, err
		}

		addr, err := keyringrpc.New(in.caller).AddressFromURI(in.ctx, in.args[0], keyType)
		if err != nil {
			return nil, err
		}

		return map[string]string{"address": addr}, nil
	})

	cmd.AddCommand(initialize, addMnemonic, addJSON, pair, address)

	return cmd
}

func didCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "did",
		Short: "Build did:key documents and resolutions",
	}

	keyDocument := &cobra.Command{
		Use:   "key-document <keypair-file|->",
		Short: "Print the did:key document of a verification key or keyring pair document",
		Args:  cobra.ExactArgs(1),
		RunE: flags.run(func(in *invocation) (interface{}, error) {
			var keypairDoc map[string]interface{}

			if err := in.decode(0, &keypairDoc); err != nil {
				return nil, err
			}

			return didrpc.New(in.caller).KeypairToDIDKeyDocument(in.ctx, keypairDoc)
		}),
	}

	resolution := &cobra.Command{
		Use:   "resolution <did-document-file|->",
		Short: "Print the resolution result of a DID document",
		Args:  cobra.ExactArgs(1),
	}
	resolution.Flags().String(propsFlagName, "", "JSON object merged into the DID document")
	resolution.RunE = flags.run(func(in *invocation) (interface{}, error) {
		var didDocument, props map[string]interface{}

		if err := in.decode(0, &didDocument); err != nil {
			return nil, err
		}

		raw, err := in.cmd.Flags().GetString(propsFlagName)
		if err != nil {
			return nil, err
		}

		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &props); err != nil {
				return nil, fmt.Errorf("decode --%s: %w", propsFlagName, err)
			}
		}

		return didrpc.New(in.caller).GetDIDResolution(in.ctx, didDocument, props)
	})

	generate := &cobra.Command{
		Use:   "generate-key-doc",
		Short: "Print a key document derived from a fresh random seed",
		Args:  cobra.NoArgs,
	}
	addKeyFlags(generate, true)
	generate.RunE = flags.run(func(in *invocation) (interface{}, error) {
		keyType, derivePath, err := keyFlags(in.cmd)
		if err != nil {
			return nil, err
		}

		return didrpc.New(in.caller).GenerateKeyDoc(in.ctx, derivePath, keyType)
	})

	cmd.AddCommand(keyDocument, resolution, generate)

	return cmd
}

func dockCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dock",
		Short: "Manage the chain node connection of the agent",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init <address>",
			Short: "Connect to the node at address",
			Args:  cobra.ExactArgs(1),
			RunE: flags.run(func(in *invocation) (interface{}, error) {
				return nil, dockrpc.New(in.caller).Init(in.ctx, in.args[0])
			}),
		},
		&cobra.Command{
			Use:   "disconnect",
			Short: "Close the node connection",
			Args:  cobra.NoArgs,
			RunE: flags.run(func(in *invocation) (interface{}, error) {
				return nil, dockrpc.New(in.caller).Disconnect(in.ctx)
			}),
		},
		&cobra.Command{
			Use:   "ready",
			Short: "Fail unless the node connection is usable",
			Args:  cobra.NoArgs,
			RunE: flags.run(func(in *invocation) (interface{}, error) {
				return nil, dockrpc.New(in.caller).EnsureDockReady(in.ctx)
			}),
		},
		&cobra.Command{
			Use:   "connected",
			Short: "Print the node connection state",
			Args:  cobra.NoArgs,
			RunE: flags.run(func(in *invocation) (interface{}, error) {
				return dockrpc.New(in.caller).IsAPIConnected(in.ctx)
			}),
		},
	)

	return cmd
}
