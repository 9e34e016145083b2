package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for signer server and CLI configuration
const (
	EnvSignerPort               = "ETHSIGNER_PORT"
	EnvSignerConfigFile         = "ETHSIGNER_CONFIG"
	EnvSignerRateLimit          = "ETHSIGNER_RATE_LIMIT"
	EnvSignerRateBurst          = "ETHSIGNER_RATE_BURST"
	EnvSignerResponseSigningKey = "ETHSIGNER_RESPONSE_SIGNING_KEY"
	EnvSignerVerbose            = "ETHSIGNER_VERBOSE"
	EnvSignerPrivateKey         = "ETHSIGNER_PRIVATE_KEY"
	EnvSignerRemoteURL          = "ETHSIGNER_REMOTE_URL"
	EnvSignerExpectedAddress    = "ETHSIGNER_EXPECTED_SIGNER_ADDRESS"
	EnvSignerChain              = "ETHSIGNER_CHAIN"
)

// Defaults applied before a config file or flags are read
const (
	DefaultPort         = 8545
	DefaultMaxBodyBytes = 1 << 20
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

type ChainId uint64

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumHolesky ChainId = 17000
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumHolesky ChainName = "holesky"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumHolesky: ChainName_EthereumHolesky,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumHolesky: ChainId_EthereumHolesky,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// ResolveChainId accepts a known chain name or any positive numeric chain id.
func ResolveChainId(nameOrId string) (ChainId, error) {
	s := strings.ToLower(strings.TrimSpace(nameOrId))
	if s == "" {
		return 0, fmt.Errorf("chain cannot be empty")
	}
	if id, ok := ChainNameToId[ChainName(s)]; ok {
		return id, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown chain %q. Supported names: %s", nameOrId, GetSupportedChainsString())
	}
	if id == 0 {
		return 0, fmt.Errorf("chain id must be positive")
	}
	return ChainId(id), nil
}

// GetSupportedChainsString returns supported chain names for CLI help
func GetSupportedChainsString() string {
	return fmt.Sprintf("%s (%d), %s (%d), %s (%d), %s (%d)",
		ChainName_EthereumMainnet, ChainId_EthereumMainnet,
		ChainName_EthereumSepolia, ChainId_EthereumSepolia,
		ChainName_EthereumHolesky, ChainId_EthereumHolesky,
		ChainName_EthereumAnvil, ChainId_EthereumAnvil,
	)
}

// SignerServerConfig represents the complete configuration for the signing server
type SignerServerConfig struct {
	Port int `json:"port" yaml:"port"`

	// RateLimit is the sustained requests per second across all clients. Zero disables limiting.
	RateLimit float64 `json:"rateLimit" yaml:"rateLimit"`
	RateBurst int     `json:"rateBurst" yaml:"rateBurst"`

	// ResponseSigningKey is an optional hex private key used to sign response bodies.
	ResponseSigningKey string `json:"responseSigningKey" yaml:"responseSigningKey"`

	MaxBodyBytes int64         `json:"maxBodyBytes" yaml:"maxBodyBytes"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`

	Debug   bool `json:"debug" yaml:"debug"`
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultSignerServerConfig returns a config with every optional field populated
func DefaultSignerServerConfig() *SignerServerConfig {
	return &SignerServerConfig{
		Port:         DefaultPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// LoadSignerServerConfigFile reads a YAML config file over the defaults.
// Unknown keys are rejected.
func LoadSignerServerConfigFile(path string) (*SignerServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseSignerServerConfig(data)
}

// ParseSignerServerConfig decodes YAML config bytes over the defaults.
func ParseSignerServerConfig(data []byte) (*SignerServerConfig, error) {
	cfg := DefaultSignerServerConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate validates the signing server configuration
func (c *SignerServerConfig) Validate() error {
	var allErrors field.ErrorList
	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}
	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "rateLimit cannot be negative"))
	}
	if c.RateBurst < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateBurst"), c.RateBurst, "rateBurst cannot be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("rateBurst"), "rateBurst is required when rateLimit is set"))
	}
	if c.MaxBodyBytes <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("maxBodyBytes"), c.MaxBodyBytes, "maxBodyBytes must be positive"))
	}
	if c.ReadTimeout <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("readTimeout"), c.ReadTimeout.String(), "readTimeout must be positive"))
	}
	if c.WriteTimeout <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("writeTimeout"), c.WriteTimeout.String(), "writeTimeout must be positive"))
	}
	if c.ResponseSigningKey != "" {
		if _, err := ethSigner.AddressOf(ethSigner.HexKey(c.ResponseSigningKey)); err != nil {
			// The key value itself is never echoed back.
			allErrors = append(allErrors, field.Invalid(field.NewPath("responseSigningKey"), "<redacted>", "responseSigningKey must be a valid secp256k1 private key"))
		}
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// RemoteSignerConfig points the CLI at a running signing server
type RemoteSignerConfig struct {
	Url string `json:"url" yaml:"url"`
	// ExpectedSignerAddress, when set, is checked against the response signature header.
	ExpectedSignerAddress string        `json:"expectedSignerAddress" yaml:"expectedSignerAddress"`
	Timeout               time.Duration `json:"timeout" yaml:"timeout"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	} else if u, err := url.Parse(rsc.Url); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		allErrors = append(allErrors, field.Invalid(field.NewPath("url"), rsc.Url, "url must be an absolute http(s) URL"))
	}
	if rsc.ExpectedSignerAddress != "" && !common.IsHexAddress(rsc.ExpectedSignerAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("expectedSignerAddress"), rsc.ExpectedSignerAddress, "invalid address format"))
	}
	if rsc.Timeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeout"), rsc.Timeout.String(), "timeout cannot be negative"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
