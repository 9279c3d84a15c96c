package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/sudo-Harshk/SeSPHR/api"
	"github.com/sudo-Harshk/SeSPHR/cmd/flags"
	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
)

func main() {
	app := &cli.App{
		Name:  "sesphr-client",
		Usage: "Client-side encryption and access for the coordinator API",
		Commands: []*cli.Command{
			keygenCommand(),
			uploadCommand(),
			accessCommand(),
			revokeCommand(),
			listCommand(),
			auditCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// keygenCommand generates a principal's RSA keypair. The private key never
// leaves the client machine.
func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate an RSA keypair for a principal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Required: true, Usage: "principal id, used as the file name stem"},
			&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "directory to write the key files to"},
		},
		Action: func(cCtx *cli.Context) error {
			priv, pub, err := cryptoutils.GenerateKeypair()
			if err != nil {
				return err
			}

			outDir := cCtx.String("out-dir")
			id := cCtx.String("id")

			privPath := filepath.Join(outDir, id+".key")
			if err := os.WriteFile(privPath, priv, 0600); err != nil {
				return fmt.Errorf("failed to write private key: %w", err)
			}

			pubPath := filepath.Join(outDir, id+".pub")
			if err := os.WriteFile(pubPath, pub, 0644); err != nil {
				return fmt.Errorf("failed to write public key: %w", err)
			}

			fmt.Printf("wrote %s and %s\n", privPath, pubPath)
			fmt.Println("register the public key with the server operator; keep the private key local")
			return nil
		},
	}
}

// uploadCommand encrypts a document locally, wraps the fresh key under the
// broker's public key, and registers the result.
func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Encrypt a document and upload it with an access policy",
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			&cli.StringFlag{Name: "owner", Required: true, Usage: "owning principal id"},
			&cli.StringFlag{Name: "policy", Required: true, Usage: "access policy, e.g. 'Role:Doctor AND Dept:ICU'"},
			&cli.StringFlag{Name: "in", Required: true, Usage: "plaintext document to upload"},
		},
		Action: func(cCtx *cli.Context) error {
			client := api.NewClient(cCtx.String(flags.ServerURLFlag.Name))

			plaintext, err := os.ReadFile(cCtx.String("in"))
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			pubResp, err := client.BrokerPubkey()
			if err != nil {
				return fmt.Errorf("failed to fetch broker public key: %w", err)
			}
			brokerPub, err := cryptoutils.NewPublicKeyPEM([]byte(pubResp.PublicKey))
			if err != nil {
				return fmt.Errorf("broker public key invalid: %w", err)
			}

			ciphertext, iv, key, err := cryptoutils.Encrypt(plaintext)
			if err != nil {
				return err
			}

			wrapped, err := cryptoutils.WrapKey(key, brokerPub)
			if err != nil {
				return err
			}

			resp, err := client.Upload(&api.UploadRequest{
				OwnerID:    cCtx.String("owner"),
				Policy:     cCtx.String("policy"),
				Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
				IV:         base64.StdEncoding.EncodeToString(iv),
				WrappedKey: base64.StdEncoding.EncodeToString(wrapped),
			})
			if err != nil {
				return err
			}

			fmt.Printf("file_id: %s\nhandle: %s\npolicy: %s\n", resp.FileID, resp.Handle, resp.Policy)
			return nil
		},
	}
}

// accessCommand requests access and, on a grant, unwraps the key with the
// requester's local private key and decrypts the document.
func accessCommand() *cli.Command {
	return &cli.Command{
		Name:  "access",
		Usage: "Request access to a file and decrypt it on grant",
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			&cli.StringFlag{Name: "requester", Required: true, Usage: "requesting principal id"},
			&cli.StringFlag{Name: "file-id", Required: true, Usage: "file to request"},
			&cli.StringFlag{Name: "key", Required: true, Usage: "requester's private key PEM file"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "path to write the decrypted document to"},
		},
		Action: func(cCtx *cli.Context) error {
			client := api.NewClient(cCtx.String(flags.ServerURLFlag.Name))

			privPEM, err := os.ReadFile(cCtx.String("key"))
			if err != nil {
				return fmt.Errorf("failed to read private key: %w", err)
			}
			priv, err := cryptoutils.NewPrivateKeyPEM(privPEM)
			if err != nil {
				return err
			}

			decision, err := client.RequestAccess(cCtx.String("file-id"), &api.AccessRequest{
				RequesterID: cCtx.String("requester"),
			})
			if err != nil {
				return err
			}

			if decision.Status != "GRANTED" {
				return fmt.Errorf("access not granted: %s (%s)", decision.Status, decision.Reason)
			}

			wrapped, err := base64.StdEncoding.DecodeString(decision.WrappedKey)
			if err != nil {
				return fmt.Errorf("invalid wrapped key in response: %w", err)
			}
			iv, err := base64.StdEncoding.DecodeString(decision.IV)
			if err != nil {
				return fmt.Errorf("invalid iv in response: %w", err)
			}
			ciphertext, err := base64.StdEncoding.DecodeString(decision.Ciphertext)
			if err != nil {
				return fmt.Errorf("invalid ciphertext in response: %w", err)
			}

			key, err := cryptoutils.UnwrapKey(wrapped, priv)
			if err != nil {
				return fmt.Errorf("failed to unwrap key: %w", err)
			}

			plaintext, err := cryptoutils.Decrypt(ciphertext, key, iv)
			if err != nil {
				return fmt.Errorf("failed to decrypt document: %w", err)
			}

			if err := os.WriteFile(cCtx.String("out"), plaintext, 0600); err != nil {
				return fmt.Errorf("failed to write document: %w", err)
			}

			fmt.Printf("decrypted document written to %s\n", cCtx.String("out"))
			return nil
		},
	}
}

func revokeCommand() *cli.Command {
	return &cli.Command{
		Name:  "revoke",
		Usage: "Revoke all future access to a file",
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			&cli.StringFlag{Name: "owner", Required: true, Usage: "owning principal id"},
			&cli.StringFlag{Name: "file-id", Required: true, Usage: "file to revoke"},
		},
		Action: func(cCtx *cli.Context) error {
			client := api.NewClient(cCtx.String(flags.ServerURLFlag.Name))

			resp, err := client.Revoke(cCtx.String("file-id"), &api.RevokeRequest{
				OwnerID: cCtx.String("owner"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("file %s: %s\n", resp.FileID, resp.Status)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List registered files",
		Flags: []cli.Flag{flags.ServerURLFlag},
		Action: func(cCtx *cli.Context) error {
			client := api.NewClient(cCtx.String(flags.ServerURLFlag.Name))

			resp, err := client.ListFiles()
			if err != nil {
				return err
			}

			for _, f := range resp.Files {
				fmt.Printf("%s  owner=%s  policy=%q  created=%d\n", f.FileID, f.OwnerID, f.Policy, f.CreatedAt)
			}
			return nil
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Print the audit ledger and verify its hash chain",
		Flags: []cli.Flag{
			flags.ServerURLFlag,
			&cli.BoolFlag{Name: "verify", Value: true, Usage: "run a server-side chain verification"},
		},
		Action: func(cCtx *cli.Context) error {
			client := api.NewClient(cCtx.String(flags.ServerURLFlag.Name))

			resp, err := client.Audit()
			if err != nil {
				return err
			}

			for _, e := range resp.Entries {
				fmt.Printf("%d  %-8s %-15s user=%s file=%s hash=%s\n",
					e.Timestamp, e.Action, e.Status, e.User, e.File, e.Hash)
			}

			if cCtx.Bool("verify") {
				verify, err := client.VerifyAudit()
				if err != nil {
					return err
				}
				if !verify.Valid {
					return fmt.Errorf("audit chain INVALID: %s", verify.Error)
				}
				fmt.Printf("audit chain valid (%d entries)\n", verify.Entries)
			}
			return nil
		},
	}
}
