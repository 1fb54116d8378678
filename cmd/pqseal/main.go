// Command pqseal is a small key, certificate, and envelope tool for the
// pqseal protocol. Payloads on the command line are treated as opaque byte
// strings; programs embedding the library can use richer structures.
package main

import (
	"encoding/pem"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pqseal/pqseal-go"
	"github.com/pqseal/pqseal-go/cbor"
)

func main() {
	root := &cobra.Command{
		Use:           "pqseal",
		Short:         "Post-quantum sealed envelopes, keys, and certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		keygenCmd(),
		fingerprintCmd(),
		certCmd(),
		signCmd(),
		verifyCmd(),
		sealCmd(),
		openCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pqseal: %v\n", err)
		os.Exit(1)
	}
}

func keygenCmd() *cobra.Command {
	var keyType, out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and write it as PEM files",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				secret pqseal.SecretKey
				public pqseal.PublicKey
				err    error
			)
			switch keyType {
			case "xdsa":
				var k *pqseal.XDSASecretKey
				if k, err = pqseal.GenerateXDSAKey(); err == nil {
					secret, public = k, k.PublicKey()
				}
			case "xhpke":
				var k *pqseal.XHPKESecretKey
				if k, err = pqseal.GenerateXHPKEKey(); err == nil {
					secret, public = k, k.PublicKey()
				}
			case "rsa":
				var k *pqseal.RSASecretKey
				if k, err = pqseal.GenerateRSAKey(); err == nil {
					secret, public = k, k.PublicKey()
				}
			default:
				return fmt.Errorf("unknown key type %q (want xdsa, xhpke, or rsa)", keyType)
			}
			if err != nil {
				return err
			}

			secretPEM, err := secret.PEM()
			if err != nil {
				return err
			}
			publicPEM, err := public.PEM()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out+".key", []byte(secretPEM), 0o600); err != nil {
				return err
			}
			if err := os.WriteFile(out+".pub", []byte(publicPEM), 0o644); err != nil {
				return err
			}
			fmt.Printf("%s\t%s.key %s.pub\n", public.Fingerprint(), out, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyType, "type", "xdsa", "key type: xdsa, xhpke, or rsa")
	cmd.Flags().StringVar(&out, "out", "pqseal", "output file prefix")
	return cmd
}

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint <key.pub>",
		Short: "Print the fingerprint of a PEM public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := loadAnyPublicKey(args[0])
			if err != nil {
				return err
			}
			fmt.Println(pub.Fingerprint())
			return nil
		},
	}
	return cmd
}

func certCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Issue and inspect certificates",
	}
	cmd.AddCommand(certIssueCmd(), certShowCmd(), certVerifyCmd())
	return cmd
}

func certIssueCmd() *cobra.Command {
	var (
		subjectKey, signerKey, out string
		subjectName, issuerName    string
		notBefore, notAfter        uint64
		isCA                       bool
		pathLen                    int
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a certificate for a public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := loadXDSASecretKey(signerKey)
			if err != nil {
				return err
			}
			params := pqseal.CertParams{
				SubjectName: subjectName,
				IssuerName:  issuerName,
				NotBefore:   notBefore,
				NotAfter:    notAfter,
				IsCA:        isCA,
			}
			if cmd.Flags().Changed("path-len") {
				params.PathLen = &pathLen
			}

			pemData, err := loadFile(subjectKey)
			if err != nil {
				return err
			}
			var certPEM string
			if pub, perr := pqseal.XDSAPublicKeyFromPEM(string(pemData)); perr == nil {
				certPEM, err = pub.CertPEM(signer, params)
			} else if pub, perr := pqseal.XHPKEPublicKeyFromPEM(string(pemData)); perr == nil {
				certPEM, err = pub.CertPEM(signer, params)
			} else {
				return fmt.Errorf("%s: not an xDSA or xHPKE public key", subjectKey)
			}
			if err != nil {
				return err
			}
			return os.WriteFile(out, []byte(certPEM), 0o644)
		},
	}
	cmd.Flags().StringVar(&subjectKey, "subject-key", "", "subject public key PEM file")
	cmd.Flags().StringVar(&signerKey, "signer-key", "", "issuer xDSA secret key PEM file")
	cmd.Flags().StringVar(&out, "out", "cert.pem", "output certificate file")
	cmd.Flags().StringVar(&subjectName, "subject-name", "", "subject common name")
	cmd.Flags().StringVar(&issuerName, "issuer-name", "", "issuer common name")
	cmd.Flags().Uint64Var(&notBefore, "not-before", 0, "validity start (unix seconds)")
	cmd.Flags().Uint64Var(&notAfter, "not-after", 0, "validity end (unix seconds)")
	cmd.Flags().BoolVar(&isCA, "ca", false, "mark the subject as a CA")
	cmd.Flags().IntVar(&pathLen, "path-len", 0, "basic constraints path length (CA only)")
	for _, f := range []string{"subject-key", "signer-key", "subject-name", "issuer-name", "not-after"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func certShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <cert.pem>",
		Short: "Print certificate contents without verifying the signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certDER, err := loadCertDER(args[0])
			if err != nil {
				return err
			}
			info, err := pqseal.InspectCertificate(certDER)
			if err != nil {
				return err
			}
			fmt.Printf("serial:     %x\n", info.SerialNumber)
			fmt.Printf("subject:    %s\n", info.SubjectName)
			fmt.Printf("issuer:     %s\n", info.IssuerName)
			fmt.Printf("not-before: %d\n", info.NotBefore)
			fmt.Printf("not-after:  %d\n", info.NotAfter)
			fmt.Printf("ca:         %v\n", info.IsCA)
			if info.PathLen != nil {
				fmt.Printf("path-len:   %d\n", *info.PathLen)
			}
			return nil
		},
	}
	return cmd
}

func certVerifyCmd() *cobra.Command {
	var issuerKey string
	cmd := &cobra.Command{
		Use:   "verify <cert.pem>",
		Short: "Verify a certificate against the issuer's public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := loadXDSAPublicKey(issuerKey)
			if err != nil {
				return err
			}
			certDER, err := loadCertDER(args[0])
			if err != nil {
				return err
			}
			key, nb, na, err := pqseal.XDSAPublicKeyFromCertDER(certDER, issuer)
			if err != nil {
				key2, nb2, na2, err2 := pqseal.XHPKEPublicKeyFromCertDER(certDER, issuer)
				if err2 != nil {
					return err
				}
				fmt.Printf("ok\t%s\t%d..%d\n", key2.Fingerprint(), nb2, na2)
				return nil
			}
			fmt.Printf("ok\t%s\t%d..%d\n", key.Fingerprint(), nb, na)
			return nil
		},
	}
	cmd.Flags().StringVar(&issuerKey, "issuer-key", "", "issuer xDSA public key PEM file")
	_ = cmd.MarkFlagRequired("issuer-key")
	return cmd
}

func signCmd() *cobra.Command {
	var signerKey, domain, in, out string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a file into a signature envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := loadXDSASecretKey(signerKey)
			if err != nil {
				return err
			}
			payload, err := loadFile(in)
			if err != nil {
				return err
			}
			envelope := pqseal.Sign(cbor.Bytes(payload), cbor.Null{}, signer, []byte(domain))
			return os.WriteFile(out, envelope, 0o644)
		},
	}
	cmd.Flags().StringVar(&signerKey, "signer-key", "", "signer xDSA secret key PEM file")
	cmd.Flags().StringVar(&domain, "domain", "", "application domain the envelope is bound to")
	cmd.Flags().StringVar(&in, "in", "", "input file")
	cmd.Flags().StringVar(&out, "out", "signed.bin", "output envelope file")
	for _, f := range []string{"signer-key", "domain", "in"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func verifyCmd() *cobra.Command {
	var signerKey, domain, in, out string
	var maxDrift uint64
	var noDrift bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature envelope and extract its payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier, err := loadXDSAPublicKey(signerKey)
			if err != nil {
				return err
			}
			envelope, err := loadFile(in)
			if err != nil {
				return err
			}
			payload, err := pqseal.Verify(envelope, cbor.Null{}, verifier, []byte(domain), driftPolicy(maxDrift, noDrift))
			if err != nil {
				return err
			}
			return writePayload(out, payload)
		},
	}
	cmd.Flags().StringVar(&signerKey, "signer-key", "", "signer xDSA public key PEM file")
	cmd.Flags().StringVar(&domain, "domain", "", "application domain the envelope is bound to")
	cmd.Flags().StringVar(&in, "in", "", "envelope file")
	cmd.Flags().StringVar(&out, "out", "-", "output file (- for stdout)")
	cmd.Flags().Uint64Var(&maxDrift, "max-drift", 300, "maximum clock drift in seconds")
	cmd.Flags().BoolVar(&noDrift, "no-drift-check", false, "accept any envelope timestamp")
	for _, f := range []string{"signer-key", "domain", "in"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func sealCmd() *cobra.Command {
	var signerKey, recipientKey, domain, in, out string
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Sign and encrypt a file into a sealed envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := loadXDSASecretKey(signerKey)
			if err != nil {
				return err
			}
			recipient, err := loadXHPKEPublicKey(recipientKey)
			if err != nil {
				return err
			}
			payload, err := loadFile(in)
			if err != nil {
				return err
			}
			sealed, err := pqseal.Seal(cbor.Bytes(payload), cbor.Null{}, signer, recipient, []byte(domain))
			if err != nil {
				return err
			}
			return os.WriteFile(out, sealed, 0o644)
		},
	}
	cmd.Flags().StringVar(&signerKey, "signer-key", "", "signer xDSA secret key PEM file")
	cmd.Flags().StringVar(&recipientKey, "recipient-key", "", "recipient xHPKE public key PEM file")
	cmd.Flags().StringVar(&domain, "domain", "", "application domain the envelope is bound to")
	cmd.Flags().StringVar(&in, "in", "", "input file")
	cmd.Flags().StringVar(&out, "out", "sealed.bin", "output envelope file")
	for _, f := range []string{"signer-key", "recipient-key", "domain", "in"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func openCmd() *cobra.Command {
	var signerKey, recipientKey, domain, in, out string
	var maxDrift uint64
	var noDrift bool
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Decrypt and verify a sealed envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := loadXHPKESecretKey(recipientKey)
			if err != nil {
				return err
			}
			sender, err := loadXDSAPublicKey(signerKey)
			if err != nil {
				return err
			}
			sealed, err := loadFile(in)
			if err != nil {
				return err
			}
			payload, err := pqseal.Open(sealed, cbor.Null{}, recipient, sender, []byte(domain), driftPolicy(maxDrift, noDrift))
			if err != nil {
				return err
			}
			return writePayload(out, payload)
		},
	}
	cmd.Flags().StringVar(&signerKey, "signer-key", "", "sender xDSA public key PEM file")
	cmd.Flags().StringVar(&recipientKey, "recipient-key", "", "recipient xHPKE secret key PEM file")
	cmd.Flags().StringVar(&domain, "domain", "", "application domain the envelope is bound to")
	cmd.Flags().StringVar(&in, "in", "", "sealed envelope file")
	cmd.Flags().StringVar(&out, "out", "-", "output file (- for stdout)")
	cmd.Flags().Uint64Var(&maxDrift, "max-drift", 300, "maximum clock drift in seconds")
	cmd.Flags().BoolVar(&noDrift, "no-drift-check", false, "accept any envelope timestamp")
	for _, f := range []string{"signer-key", "recipient-key", "domain", "in"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func driftPolicy(maxDrift uint64, noDrift bool) pqseal.Drift {
	if noDrift {
		return pqseal.NoDriftCheck()
	}
	return pqseal.MaxDrift(maxDrift)
}

func writePayload(out string, payload cbor.Value) error {
	data, ok := payload.(cbor.Bytes)
	if !ok {
		return fmt.Errorf("payload is not a byte string; use the library API for structured payloads")
	}
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func loadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func loadXDSASecretKey(path string) (*pqseal.XDSASecretKey, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return pqseal.XDSASecretKeyFromPEM(string(data))
}

func loadXDSAPublicKey(path string) (*pqseal.XDSAPublicKey, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return pqseal.XDSAPublicKeyFromPEM(string(data))
}

func loadXHPKESecretKey(path string) (*pqseal.XHPKESecretKey, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return pqseal.XHPKESecretKeyFromPEM(string(data))
}

func loadXHPKEPublicKey(path string) (*pqseal.XHPKEPublicKey, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return pqseal.XHPKEPublicKeyFromPEM(string(data))
}

func loadAnyPublicKey(path string) (pqseal.PublicKey, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	s := string(data)
	if k, err := pqseal.XDSAPublicKeyFromPEM(s); err == nil {
		return k, nil
	}
	if k, err := pqseal.XHPKEPublicKeyFromPEM(s); err == nil {
		return k, nil
	}
	if k, err := pqseal.RSAPublicKeyFromPEM(s); err == nil {
		return k, nil
	}
	return nil, fmt.Errorf("%s: not a recognized public key", path)
}

func loadCertDER(path string) ([]byte, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%s: no CERTIFICATE PEM block", path)
	}
	return block.Bytes, nil
}
