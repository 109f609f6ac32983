package dcpkdm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainProfile carries the repeated parameters of CertificateChain.GenerateNew
// so that a caller minting several chains (a signer plus one chain per
// recipient projector, say) doesn't have to restate them at every call site.
type ChainProfile struct {
	OpenSSLPath            string `yaml:"openssl_path"`
	Organisation           string `yaml:"organisation"`
	OrganisationalUnit     string `yaml:"organisational_unit"`
	RootCommonName         string `yaml:"root_common_name"`
	IntermediateCommonName string `yaml:"intermediate_common_name"`
	LeafCommonName         string `yaml:"leaf_common_name"`
	ValidityDays           int    `yaml:"validity_days"`
}

// LoadChainProfile reads a ChainProfile from a YAML file.
func LoadChainProfile(path string) (*ChainProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	var p ChainProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, newMiscError(fmt.Sprintf("failed to parse chain profile %s", path), err)
	}

	if p.ValidityDays <= 0 {
		p.ValidityDays = 40 * 365
	}
	if p.OpenSSLPath == "" {
		p.OpenSSLPath = "openssl"
	}

	return &p, nil
}
