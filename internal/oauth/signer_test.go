package oauth_test

import (
	"net/url"
	"regexp"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mudler/x-mcp/internal/oauth"
)

type fixedNoncer string

func (n fixedNoncer) Nonce() string { return string(n) }

var testCreds = oauth.Credentials{
	ConsumerKey:       "ck",
	ConsumerSecret:    "cs",
	AccessToken:       "tk",
	AccessTokenSecret: "ts",
}

var _ = Describe("PercentEncode", func() {
	DescribeTable("encodes per RFC 3986",
		func(in, want string) {
			Expect(oauth.PercentEncode(in)).To(Equal(want))
		},
		Entry("unreserved characters pass through", "AZaz09-._~", "AZaz09-._~"),
		Entry("space is %20, not +", "hello world", "hello%20world"),
		Entry("plus is escaped", "a+b", "a%2Bb"),
		Entry("at sign", "test@example.com", "test%40example.com"),
		Entry("reserved gen-delims", ":/?#[]@", "%3A%2F%3F%23%5B%5D%40"),
		Entry("reserved sub-delims", "!$&'()*,;=", "%21%24%26%27%28%29%2A%2C%3B%3D"),
		Entry("percent sign", "100%", "100%25"),
		Entry("multi-byte UTF-8", "☃", "%E2%98%83"),
		Entry("empty string", "", ""),
	)

	It("round-trips through a decoder", func() {
		for _, s := range []string{"hello world", "a+b=c&d", "☃ snow", "~tilde~", "50% off!", "line\nbreak"} {
			decoded, err := url.PathUnescape(oauth.PercentEncode(s))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(s))
		}
	})

	It("never leaves a reserved byte unescaped", func() {
		encoded := regexp.MustCompile(`^([A-Za-z0-9\-._~]|%[0-9A-F]{2})+$`)
		for b := 0; b < 256; b++ {
			Expect(encoded.MatchString(oauth.PercentEncode(string([]byte{byte(b)})))).To(BeTrue(), "byte %d", b)
		}
	})
})

var _ = Describe("Sign", func() {
	It("reproduces the pinned search signature", func() {
		req, err := oauth.Sign(testCreds, "GET", "https://api.example.com/2/tweets/search/recent",
			url.Values{"query": {"MCP"}}, "abc123", "1700000000")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Signature).To(Equal("KqQfbha6UTN1AgeM+MWqN6Ufvkc="))
		Expect(req.AuthorizationHeader()).To(Equal(`OAuth oauth_consumer_key="ck", ` +
			`oauth_nonce="abc123", ` +
			`oauth_signature="KqQfbha6UTN1AgeM%2BMWqN6Ufvkc%3D", ` +
			`oauth_signature_method="HMAC-SHA1", ` +
			`oauth_timestamp="1700000000", ` +
			`oauth_token="tk", ` +
			`oauth_version="1.0"`))
	})

	It("reproduces the published Twitter reference signature", func() {
		creds := oauth.Credentials{
			ConsumerKey:       "xvz1evFS4wEEPTGEFPHBog",
			ConsumerSecret:    "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
			AccessToken:       "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
			AccessTokenSecret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
		}
		req, err := oauth.Sign(creds, "POST", "https://api.twitter.com/1.1/statuses/update.json",
			url.Values{
				"status":           {"Hello Ladies + Gentlemen, a signed OAuth request!"},
				"include_entities": {"true"},
			},
			"kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg", "1318622958")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Signature).To(Equal("hCtSmYh+iHYCEqBWrE7C7hYmtUk="))
	})

	It("signs a body-less POST", func() {
		req, err := oauth.Sign(testCreds, "post", "https://api.twitter.com/2/tweets", nil, "abc123", "1700000000")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Method).To(Equal("POST"))
		Expect(req.Signature).To(Equal("2rbECxz56wLPmKMPNxytJ+vAvrg="))
	})

	It("encodes reserved characters in keys, values and secrets", func() {
		creds := testCreds
		creds.ConsumerSecret = "c s"
		creds.AccessTokenSecret = "t&s"
		req, err := oauth.Sign(creds, "GET", "https://api.example.com/2/x",
			url.Values{"q": {"hello world!"}, "a": {"x+y*z"}}, "abc123", "1700000000")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Signature).To(Equal("xItJpxBeRh4b7MCghibjB3PKgtY="))
	})

	It("is byte-identical for repeated calls with fixed inputs", func() {
		params := url.Values{"query": {"MCP"}, "max_results": {"10"}}
		first, err := oauth.Sign(testCreds, "GET", "https://api.example.com/2/tweets/search/recent", params, "n", "1")
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 5; i++ {
			again, err := oauth.Sign(testCreds, "GET", "https://api.example.com/2/tweets/search/recent", params, "n", "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.AuthorizationHeader()).To(Equal(first.AuthorizationHeader()))
		}
	})

	It("treats a query string on the URL like explicit params", func() {
		explicit, err := oauth.Sign(testCreds, "GET", "https://api.example.com/2/tweets/search/recent",
			url.Values{"query": {"MCP"}}, "abc123", "1700000000")
		Expect(err).NotTo(HaveOccurred())
		inline, err := oauth.Sign(testCreds, "GET", "https://api.example.com/2/tweets/search/recent?query=MCP#frag",
			nil, "abc123", "1700000000")
		Expect(err).NotTo(HaveOccurred())
		Expect(inline.Signature).To(Equal(explicit.Signature))
		Expect(inline.BaseURL).To(Equal("https://api.example.com/2/tweets/search/recent"))
		Expect(inline.QueryParams.Get("query")).To(Equal("MCP"))
	})

	It("normalizes scheme, host and default port", func() {
		req, err := oauth.Sign(testCreds, "GET", "HTTPS://API.Example.com:443/2/tweets/search/recent",
			url.Values{"query": {"MCP"}}, "abc123", "1700000000")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.BaseURL).To(Equal("https://api.example.com/2/tweets/search/recent"))
		Expect(req.Signature).To(Equal("KqQfbha6UTN1AgeM+MWqN6Ufvkc="))
	})

	It("keeps non-default ports", func() {
		req, err := oauth.Sign(testCreds, "GET", "http://127.0.0.1:8080/2/users/1", nil, "n", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.BaseURL).To(Equal("http://127.0.0.1:8080/2/users/1"))
	})

	It("rejects relative URLs", func() {
		_, err := oauth.Sign(testCreds, "GET", "/2/users/1", nil, "n", "1")
		Expect(err).To(MatchError(ContainSubstring("must be absolute")))
	})

	It("fails with a SigningError naming the empty credentials", func() {
		creds := testCreds
		creds.ConsumerSecret = ""
		creds.AccessTokenSecret = ""
		_, err := oauth.Sign(creds, "GET", "https://api.example.com/2/x", nil, "n", "1")
		var signErr *oauth.SigningError
		Expect(err).To(BeAssignableToTypeOf(signErr))
		Expect(err.(*oauth.SigningError).Missing).To(Equal([]string{"consumer_secret", "access_token_secret"}))
		Expect(err.Error()).NotTo(ContainSubstring("ck"))
	})

	It("includes the signature in the header but not in the query params", func() {
		req, err := oauth.Sign(testCreds, "GET", "https://api.example.com/2/x", url.Values{"a": {"1"}}, "n", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.OAuthParams).To(HaveKeyWithValue("oauth_signature", req.Signature))
		Expect(req.QueryParams).NotTo(HaveKey("oauth_signature"))
		Expect(req.QueryParams).To(HaveLen(1))
	})
})

var _ = Describe("ParameterString", func() {
	It("sorts by encoded key then encoded value for repeated keys", func() {
		params := url.Values{
			"b":     {"2"},
			"a":     {"z", "y", "a b"},
			"a_key": {"1"},
		}
		Expect(oauth.ParameterString(params)).To(Equal("a=a%20b&a=y&a=z&a_key=1&b=2"))
	})

	It("sorts on the encoded form", func() {
		// '%' (0x25) sorts before 'A' (0x41) once encoded.
		params := url.Values{"A": {"1"}, "!": {"2"}}
		Expect(oauth.ParameterString(params)).To(Equal("%21=2&A=1"))
	})
})

var _ = Describe("SignatureBase", func() {
	It("uppercases the method and encodes URL and parameters", func() {
		base := oauth.SignatureBase("get", "https://api.example.com/2/x", url.Values{"q": {"a b"}})
		Expect(base).To(Equal("GET&https%3A%2F%2Fapi.example.com%2F2%2Fx&q%3Da%2520b"))
	})
})

var _ = Describe("Signer", func() {
	It("rejects incomplete credentials at construction", func() {
		_, err := oauth.NewSigner(oauth.Credentials{ConsumerKey: "ck"})
		Expect(err).To(HaveOccurred())
		Expect(err.(*oauth.SigningError).Missing).To(ConsistOf("consumer_secret", "access_token", "access_token_secret"))
	})

	It("uses the injected clock and noncer", func() {
		signer, err := oauth.NewSigner(testCreds,
			oauth.WithNoncer(fixedNoncer("abc123")),
			oauth.WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
		)
		Expect(err).NotTo(HaveOccurred())
		req, err := signer.Sign("GET", "https://api.example.com/2/tweets/search/recent", url.Values{"query": {"MCP"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Signature).To(Equal("KqQfbha6UTN1AgeM+MWqN6Ufvkc="))
		Expect(req.OAuthParams["oauth_timestamp"]).To(Equal("1700000000"))
	})

	It("uses a fresh nonce and the current time by default", func() {
		signer, err := oauth.NewSigner(testCreds)
		Expect(err).NotTo(HaveOccurred())
		before := time.Now().Unix()
		first, err := signer.Sign("GET", "https://api.example.com/2/x", nil)
		Expect(err).NotTo(HaveOccurred())
		second, err := signer.Sign("GET", "https://api.example.com/2/x", nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.OAuthParams["oauth_nonce"]).NotTo(Equal(second.OAuthParams["oauth_nonce"]))
		Expect(first.Signature).NotTo(Equal(second.Signature))
		ts, err := strconv.ParseInt(first.OAuthParams["oauth_timestamp"], 10, 64)
		Expect(err).NotTo(HaveOccurred())
		Expect(ts).To(BeNumerically(">=", before))
		Expect(ts).To(BeNumerically("<=", time.Now().Unix()))
	})
})

var _ = Describe("AlphanumericNoncer", func() {
	It("returns 32 alphanumeric characters", func() {
		Expect(oauth.AlphanumericNoncer{}.Nonce()).To(MatchRegexp(`^[A-Za-z0-9]{32}$`))
	})

	It("never repeats in immediate succession", func() {
		seen := map[string]struct{}{}
		for i := 0; i < 1000; i++ {
			n := oauth.AlphanumericNoncer{}.Nonce()
			Expect(seen).NotTo(HaveKey(n))
			seen[n] = struct{}{}
		}
	})
})
