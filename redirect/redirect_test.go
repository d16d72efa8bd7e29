package redirect

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("test-secret", "http://client/answer", "http://client/end")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("", "a", "b"); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, value := range []string{"42", "réponse accentuée", strings.Repeat("x", 1000)} {
		enc, err := c.EncryptParam(value)
		if err != nil {
			t.Fatalf("EncryptParam(%q) failed: %v", value, err)
		}
		if enc == value {
			t.Error("Expected ciphertext to differ from plaintext")
		}
		dec, err := c.DecryptParam(enc)
		if err != nil {
			t.Fatalf("DecryptParam failed: %v", err)
		}
		if dec != value {
			t.Errorf("Round trip mismatch: %q != %q", dec, value)
		}
	}
}

func TestEncryptParamRejectsEmpty(t *testing.T) {
	c := newTestCodec(t)

	if _, err := c.EncryptParam(""); !errors.Is(err, ErrEmptyParam) {
		t.Errorf("Expected ErrEmptyParam, got %v", err)
	}
	if _, err := c.DecryptParam(""); !errors.Is(err, ErrEmptyParam) {
		t.Errorf("Expected ErrEmptyParam, got %v", err)
	}
}

func TestDecryptParamRejectsGarbage(t *testing.T) {
	c := newTestCodec(t)

	for _, encoded := range []string{"not!base64!", "c2hvcnQ", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		if _, err := c.DecryptParam(encoded); !errors.Is(err, ErrBadCiphertext) {
			t.Errorf("DecryptParam(%q): expected ErrBadCiphertext, got %v", encoded, err)
		}
	}
}

func TestDecryptRequiresSameSecret(t *testing.T) {
	c := newTestCodec(t)
	other, _ := NewCodec("different-secret", "a", "b")

	enc, err := c.EncryptParam("payload")
	if err != nil {
		t.Fatalf("EncryptParam failed: %v", err)
	}
	if _, err := other.DecryptParam(enc); !errors.Is(err, ErrBadCiphertext) {
		t.Errorf("Expected decryption under another secret to fail, got %v", err)
	}
}

func TestAnswerURL(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.AnswerURL(7, "the key")
	if err != nil {
		t.Fatalf("AnswerURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AnswerURL produced an unparseable URL: %v", err)
	}
	if !strings.HasPrefix(raw, "http://client/answer?") {
		t.Errorf("Unexpected base: %s", raw)
	}

	q := u.Query()
	question, err := c.DecryptParam(q.Get("question"))
	if err != nil || question != "7" {
		t.Errorf("Expected encrypted question id 7, got %q (%v)", question, err)
	}
	answer, err := c.DecryptParam(q.Get("answer"))
	if err != nil || answer != "the key" {
		t.Errorf("Expected encrypted answer, got %q (%v)", answer, err)
	}
}

func TestAnswerURLWithoutAnswer(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.AnswerURL(3, "")
	if err != nil {
		t.Fatalf("AnswerURL failed: %v", err)
	}
	u, _ := url.Parse(raw)
	if u.Query().Has("answer") {
		t.Error("Expected no answer parameter when the answer is empty")
	}
}

func TestEndGameURLCarriesVotes(t *testing.T) {
	c := newTestCodec(t)
	votes := map[string]string{"p1": "s1", "p2": "s2"}

	raw, err := c.EndGameURL(votes)
	if err != nil {
		t.Fatalf("EndGameURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("EndGameURL produced an unparseable URL: %v", err)
	}

	plain, err := c.DecryptParam(u.Query().Get("votes"))
	if err != nil {
		t.Fatalf("DecryptParam failed: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(plain), &decoded); err != nil {
		t.Fatalf("Votes payload is not JSON: %v", err)
	}
	if decoded["p1"] != "s1" || decoded["p2"] != "s2" {
		t.Errorf("Unexpected votes payload: %v", decoded)
	}
}

func TestEncryptParamIsNotDeterministic(t *testing.T) {
	c := newTestCodec(t)

	a, _ := c.EncryptParam("same")
	b, _ := c.EncryptParam("same")
	if a == b {
		t.Error("Expected random nonces to yield distinct ciphertexts")
	}
}
