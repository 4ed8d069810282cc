package security

import (
	"regexp"
	"strings"

	"llm-gateway/internal/domain/chat"
)

// credentialPolicy is the structural shape check for one provider's
// credential. Authenticity is the vendor's problem; only the shape is
// checked here, never over the network.
type credentialPolicy struct {
	prefixes []string
	minLen   int
}

var credentialPolicies = map[string]credentialPolicy{
	"openai":    {prefixes: []string{"sk-", "sk-proj-"}, minLen: 20},
	"anthropic": {prefixes: []string{"sk-ant-"}, minLen: 20},
	"gemini":    {prefixes: []string{"AIza"}, minLen: 20},
	"grok":      {prefixes: []string{"xai-"}, minLen: 20},
}

// noCredentialProviders must be constructed without a credential; handing
// one over is itself a failure.
var noCredentialProviders = map[string]struct{}{
	"ollama": {},
}

// Generic window for providers without a dedicated policy.
const (
	genericCredentialMinLen = 16
	genericCredentialMaxLen = 200
)

// injectionPatterns are scanned case-insensitively across whole content
// strings, newlines included.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)system\s*\(`),
}

// Generation parameter bounds.
const (
	temperatureMin = 0.0
	temperatureMax = 2.0
	maxTokensMin   = 1
	maxTokensMax   = 32768
	topPMin        = 0.0
	topPMax        = 1.0
	topKMin        = 1
	topKMax        = 100
)

// CheckCredential reports whether the credential has the expected shape
// for the named provider. Unknown providers fall back to a generic length
// window.
func CheckCredential(providerName, credential string) bool {
	name := strings.ToLower(providerName)
	if _, ok := noCredentialProviders[name]; ok {
		return credential == ""
	}
	if credential == "" {
		return false
	}
	if policy, ok := credentialPolicies[name]; ok {
		if len(credential) < policy.minLen {
			return false
		}
		for _, prefix := range policy.prefixes {
			if strings.HasPrefix(credential, prefix) {
				return true
			}
		}
		return false
	}
	return len(credential) >= genericCredentialMinLen && len(credential) <= genericCredentialMaxLen
}

// CheckMessages reports whether a message list is well formed: non-empty,
// every role in the fixed enum, and no content string carrying an
// injection signature. One bad message invalidates the whole list.
func CheckMessages(messages []chat.Message) bool {
	if len(messages) == 0 {
		return false
	}
	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem, chat.RoleUser, chat.RoleAssistant:
		default:
			return false
		}
		if ContainsInjection(m.Content) {
			return false
		}
	}
	return true
}

// ContainsInjection reports whether text matches any injection signature.
func ContainsInjection(text string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckParams range-checks the recognized generation parameters. Unknown
// keys pass through untouched. On failure the offending field name is
// returned.
func CheckParams(params chat.Params) (string, bool) {
	if _, present := params[chat.ParamTemperature]; present {
		if v, ok := params.Float(chat.ParamTemperature); !ok || v < temperatureMin || v > temperatureMax {
			return chat.ParamTemperature, false
		}
	}
	if _, present := params[chat.ParamMaxTokens]; present {
		if v, ok := params.Int(chat.ParamMaxTokens); !ok || v < maxTokensMin || v > maxTokensMax {
			return chat.ParamMaxTokens, false
		}
	}
	if _, present := params[chat.ParamTopP]; present {
		if v, ok := params.Float(chat.ParamTopP); !ok || v < topPMin || v > topPMax {
			return chat.ParamTopP, false
		}
	}
	if _, present := params[chat.ParamTopK]; present {
		if v, ok := params.Int(chat.ParamTopK); !ok || v < topKMin || v > topKMax {
			return chat.ParamTopK, false
		}
	}
	if _, present := params[chat.ParamTimeout]; present {
		if v, ok := params.Float(chat.ParamTimeout); !ok || v <= 0 {
			return chat.ParamTimeout, false
		}
	}
	return "", true
}
