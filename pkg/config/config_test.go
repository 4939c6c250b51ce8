package config_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/telekom/das-schiff-network-topology/pkg/config"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t,
		"Config Suite")
}

func withEnv(value string, fn func()) {
	oldEnv, isSet := os.LookupEnv(config.ConfigEnv)
	Expect(os.Setenv(config.ConfigEnv, value)).To(Succeed())
	defer func() {
		if isSet {
			Expect(os.Setenv(config.ConfigEnv, oldEnv)).To(Succeed())
		} else {
			Expect(os.Unsetenv(config.ConfigEnv)).To(Succeed())
		}
	}()
	fn()
}

var _ = Describe("LoadConfig()", func() {
	It("returns error if cannot read config", func() {
		withEnv("some-invalid-path", func() {
			_, err := config.LoadConfig("")
			Expect(err).To(HaveOccurred())
		})
	})
	It("returns error if cannot unmarshal config", func() {
		withEnv("./testdata/invalidConfig.yaml", func() {
			_, err := config.LoadConfig("")
			Expect(err).To(HaveOccurred())
		})
	})
	It("returns error if the config is null", func() {
		_, err := config.LoadConfig("./testdata/nullConfig.yaml")
		Expect(err).To(MatchError(ContainSubstring("is empty")))
	})
	It("returns no error", func() {
		withEnv("./testdata/config.yaml", func() {
			c, err := config.LoadConfig("")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Parallelism).To(Equal(4))
			Expect(c.IncludeInactiveOwners).To(BeTrue())
			Expect(c.ExcludeTunnels()).To(BeFalse())
			Expect(c.Logging.File).To(Equal("/var/log/nwtopo/nwtopo.log"))
			Expect(c.Logging.Level).To(Equal("debug"))
		})
	})
	It("prefers an explicit path over the environment", func() {
		withEnv("some-invalid-path", func() {
			c, err := config.LoadConfig("./testdata/minimalConfig.yaml")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Logging.Level).To(Equal("warn"))
		})
	})
	It("applies defaults", func() {
		c, err := config.LoadConfig("./testdata/minimalConfig.yaml")
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Parallelism).To(Equal(runtime.NumCPU()))
		Expect(c.ExcludeTunnels()).To(BeTrue())
		Expect(c.IncludeInactiveOwners).To(BeFalse())
		Expect(c.Logging.MaxSizeMB).To(Equal(100))
		Expect(config.Default().Logging.Level).To(Equal("info"))
	})
})

var _ = Describe("WithDefaults()", func() {
	It("defaults a zero config without modifying it", func() {
		zero := &config.Config{}
		c := zero.WithDefaults()
		Expect(c.Parallelism).To(Equal(runtime.NumCPU()))
		Expect(c.ExcludeTunnels()).To(BeTrue())
		Expect(zero.Parallelism).To(BeZero())
		Expect(zero.Layer3.ExcludeTunnels).To(BeNil())
	})
	It("keeps values that are set", func() {
		c := (&config.Config{Parallelism: 2, Logging: config.LoggingConfig{Level: "debug"}}).WithDefaults()
		Expect(c.Parallelism).To(Equal(2))
		Expect(c.Logging.Level).To(Equal("debug"))
	})
	It("accepts a nil config", func() {
		var c *config.Config
		Expect(c.WithDefaults()).To(Equal(config.Default()))
	})
})
