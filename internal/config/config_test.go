package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mudler/x-mcp/internal/config"
)

func lookupFrom(env map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func fullEnv() map[string]string {
	return map[string]string{
		config.EnvConsumerKey:       "ck",
		config.EnvConsumerSecret:    "cs",
		config.EnvAccessToken:       "tk",
		config.EnvAccessTokenSecret: "ts",
	}
}

var _ = Describe("LoadFrom", func() {
	It("loads OAuth 1.0a credentials with defaults", func() {
		cfg, err := config.LoadFrom(lookupFrom(fullEnv()))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.AuthMode).To(Equal(config.AuthOAuth1))
		Expect(cfg.UserContext()).To(BeTrue())
		Expect(cfg.Credentials.ConsumerKey).To(Equal("ck"))
		Expect(cfg.Credentials.AccessTokenSecret).To(Equal("ts"))
		Expect(cfg.APIBaseURL).To(Equal(config.DefaultAPIBaseURL))
		Expect(cfg.HTTPTimeout).To(Equal(30 * time.Second))
		Expect(cfg.ReadOnly).To(BeFalse())
		Expect(cfg.Debug).To(BeFalse())
	})

	It("fails fast without credentials in full mode", func() {
		_, err := config.LoadFrom(lookupFrom(map[string]string{}))
		var cfgErr *config.ConfigurationError
		Expect(err).To(BeAssignableToTypeOf(cfgErr))
		Expect(err.(*config.ConfigurationError).Vars).To(ConsistOf(
			config.EnvConsumerKey, config.EnvConsumerSecret, config.EnvAccessToken, config.EnvAccessTokenSecret))
	})

	It("rejects a bearer token alone in full mode", func() {
		_, err := config.LoadFrom(lookupFrom(map[string]string{config.EnvBearerToken: "bt"}))
		Expect(err).To(MatchError(ContainSubstring("X_READ_ONLY")))
	})

	It("names only the missing variables of a partial OAuth set", func() {
		env := fullEnv()
		delete(env, config.EnvAccessTokenSecret)
		env[config.EnvConsumerSecret] = "   "
		_, err := config.LoadFrom(lookupFrom(env))
		Expect(err).To(HaveOccurred())
		cfgErr := err.(*config.ConfigurationError)
		Expect(cfgErr.Vars).To(Equal([]string{config.EnvConsumerSecret, config.EnvAccessTokenSecret}))
		Expect(cfgErr.Error()).To(ContainSubstring("incomplete OAuth 1.0a credentials"))
	})

	It("never puts credential values in errors", func() {
		env := map[string]string{
			config.EnvConsumerKey:       "sekrit-consumer-key",
			config.EnvConsumerSecret:    "sekrit-consumer-secret",
			config.EnvAccessTokenSecret: "sekrit-token-secret",
		}
		_, err := config.LoadFrom(lookupFrom(env))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(config.EnvAccessToken))
		Expect(err.Error()).NotTo(ContainSubstring("sekrit"))
	})

	Context("read-only mode", func() {
		It("falls back to the bearer token", func() {
			cfg, err := config.LoadFrom(lookupFrom(map[string]string{
				config.EnvReadOnly:    "true",
				config.EnvBearerToken: "bt",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AuthMode).To(Equal(config.AuthBearer))
			Expect(cfg.UserContext()).To(BeFalse())
			Expect(cfg.BearerToken).To(Equal("bt"))
		})

		It("prefers OAuth 1.0a when both are present", func() {
			env := fullEnv()
			env[config.EnvReadOnly] = "1"
			env[config.EnvBearerToken] = "bt"
			cfg, err := config.LoadFrom(lookupFrom(env))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AuthMode).To(Equal(config.AuthOAuth1))
			Expect(cfg.ReadOnly).To(BeTrue())
		})

		It("fails when neither is present", func() {
			_, err := config.LoadFrom(lookupFrom(map[string]string{config.EnvReadOnly: "true"}))
			Expect(err).To(HaveOccurred())
			Expect(err.(*config.ConfigurationError).Vars).To(ContainElement(config.EnvBearerToken))
		})
	})

	It("reads overrides", func() {
		env := fullEnv()
		env[config.EnvAPIBaseURL] = "http://127.0.0.1:9999/2/"
		env[config.EnvHTTPTimeout] = "5s"
		env[config.EnvLegacyDebug] = "1"
		env[config.EnvLogFile] = "/tmp/x.log"
		cfg, err := config.LoadFrom(lookupFrom(env))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.APIBaseURL).To(Equal("http://127.0.0.1:9999/2"))
		Expect(cfg.HTTPTimeout).To(Equal(5 * time.Second))
		Expect(cfg.Debug).To(BeTrue())
		Expect(cfg.LogFile).To(Equal("/tmp/x.log"))
	})

	DescribeTable("rejects malformed values",
		func(key, value string) {
			env := fullEnv()
			env[key] = value
			_, err := config.LoadFrom(lookupFrom(env))
			Expect(err).To(HaveOccurred())
			Expect(err.(*config.ConfigurationError).Vars).To(Equal([]string{key}))
		},
		Entry("timeout", config.EnvHTTPTimeout, "soon"),
		Entry("negative timeout", config.EnvHTTPTimeout, "-1s"),
		Entry("read-only flag", config.EnvReadOnly, "maybe"),
	)
})

var _ = Describe("Load", func() {
	var saved map[string]*string

	keys := []string{
		config.EnvConsumerKey, config.EnvConsumerSecret, config.EnvAccessToken, config.EnvAccessTokenSecret,
		config.EnvBearerToken, config.EnvReadOnly, config.EnvAPIBaseURL, config.EnvHTTPTimeout,
		config.EnvEnvFile, config.EnvDebug, config.EnvLegacyDebug, config.EnvLogFile,
	}

	BeforeEach(func() {
		saved = map[string]*string{}
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok {
				saved[k] = &v
			} else {
				saved[k] = nil
			}
			os.Unsetenv(k)
		}
		DeferCleanup(func() {
			for k, v := range saved {
				if v == nil {
					os.Unsetenv(k)
				} else {
					os.Setenv(k, *v)
				}
			}
		})
	})

	It("seeds the environment from a dotenv file", func() {
		dir := GinkgoT().TempDir()
		envFile := filepath.Join(dir, "x.env")
		Expect(os.WriteFile(envFile, []byte("X_CONSUMER_KEY=file-ck\nX_CONSUMER_SECRET=file-cs\nX_ACCESS_TOKEN=file-tk\nX_ACCESS_TOKEN_SECRET=file-ts\n"), 0o600)).To(Succeed())
		os.Setenv(config.EnvEnvFile, envFile)
		os.Setenv(config.EnvConsumerKey, "env-ck")

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Credentials.ConsumerKey).To(Equal("env-ck"))
		Expect(cfg.Credentials.ConsumerSecret).To(Equal("file-cs"))
		Expect(cfg.Credentials.AccessTokenSecret).To(Equal("file-ts"))
	})

	It("ignores a missing dotenv file", func() {
		os.Setenv(config.EnvEnvFile, filepath.Join(GinkgoT().TempDir(), "missing.env"))
		os.Setenv(config.EnvReadOnly, "true")
		os.Setenv(config.EnvBearerToken, "bt")

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.AuthMode).To(Equal(config.AuthBearer))
	})
})
