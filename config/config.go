package config

import (
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	commonlog "github.com/azharpratama/tenso/common/log"
)

type Network struct {
	URL        string `yaml:"url"`
	ChainID    int64  `yaml:"chainId"`
	NetworkID  string `yaml:"networkId"`
	PrivateKey string `yaml:"privateKey"`
}

type Contracts struct {
	Usdc            string `yaml:"usdc"`
	PaymentRouter   string `yaml:"paymentRouter"`
	PaymentVerifier string `yaml:"paymentVerifier"`
	NodeRegistry    string `yaml:"nodeRegistry"`
}

type Settlement struct {
	// Mode selects the settlement strategy: "sponsored" spends the node's
	// own custody, "direct" pulls from the payer via its EIP-3009
	// authorization.
	Mode           string        `yaml:"mode"`
	ConfirmTimeout time.Duration `yaml:"confirmTimeout"`
}

type Config struct {
	AllowOrigins []string `yaml:"allowOrigins"`
	Database     struct {
		Provider string `yaml:"provider"`
	} `yaml:"database"`
	Network      Network    `yaml:"network"`
	Contracts    Contracts  `yaml:"contracts"`
	NodeOperator string     `yaml:"nodeOperator"`
	Settlement   Settlement `yaml:"settlement"`
	Monitor      struct {
		Enable bool `yaml:"enable"`
	} `yaml:"monitor"`
	Analytics struct {
		Workers int `yaml:"workers"`
	} `yaml:"analytics"`
	RegistryCacheExpiration time.Duration    `yaml:"registryCacheExpiration"`
	Logger                  commonlog.Config `yaml:"logger"`
}

var (
	instance *Config
	once     sync.Once
)

func loadConfig(config *Config) error {
	configPath := "/etc/config/config.yaml"
	if envPath := os.Getenv("CONFIG_FILE"); envPath != "" {
		configPath = envPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return yaml.UnmarshalStrict(data, config)
}

func GetConfig() *Config {
	once.Do(func() {
		instance = &Config{
			AllowOrigins: []string{"*"},
			Database: struct {
				Provider string `yaml:"provider"`
			}{
				Provider: "root:123456@tcp(mysql:3306)/forwarder?parseTime=true",
			},
			Network: Network{
				URL:       "https://sepolia.base.org",
				ChainID:   84532,
				NetworkID: "eip155:84532",
			},
			Contracts: Contracts{
				Usdc:            "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
				PaymentRouter:   "0x6fa35e1f6ab4291432b36f16578614e90750b7e6",
				PaymentVerifier: "0xa73d7c7703b23cc4692fdd817345ad29db5ac4e9",
				NodeRegistry:    "0x5b2222610e04380e1caf3988d88fbd15686a1b6c",
			},
			Settlement: Settlement{
				Mode:           "sponsored",
				ConfirmTimeout: 2 * time.Minute,
			},
			Analytics: struct {
				Workers int `yaml:"workers"`
			}{
				Workers: 4,
			},
			RegistryCacheExpiration: 5 * time.Minute,
		}

		if err := loadConfig(instance); err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}

		if key := os.Getenv("PRIVATE_KEY"); key != "" {
			instance.Network.PrivateKey = key
		}
	})

	return instance
}
