package modem

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestInitAndRebootRoundTrip walks the full token lifecycle: Init captures
// the session/verification tokens from SesTokInfo, then Reboot sends the
// control request with those tokens and picks up a rolled verification
// token from the response header.
func TestInitAndRebootRoundTrip(t *testing.T) {
	var gotCookie, gotVerifTok string
	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc(sesTokPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<?xml version="1.0"?><response><SesInfo>S</SesInfo><TokInfo>T</TokInfo></response>`)
	})
	mux.HandleFunc(controlPath, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotVerifTok = r.Header.Get(verifTokHeader)
		b, _ := io.ReadAll(r.Body)
		gotBody = b
		w.Header().Set(verifTokHeader, "T2")
		io.WriteString(w, rebootOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Listener.Addr().String(), 5*time.Second)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.mu.Lock()
	if c.sessionToken != "S" {
		t.Errorf("sessionToken = %q, want %q", c.sessionToken, "S")
	}
	if c.verificationToken != "T" {
		t.Errorf("verificationToken = %q, want %q", c.verificationToken, "T")
	}
	c.mu.Unlock()

	if err := c.Reboot(context.Background()); err != nil {
		t.Fatalf("Reboot: %v", err)
	}

	if gotCookie != "SessionId=S" {
		t.Errorf("Cookie header = %q, want %q", gotCookie, "SessionId=S")
	}
	if gotVerifTok != "T" {
		t.Errorf("verification token sent = %q, want %q", gotVerifTok, "T")
	}
	if string(gotBody) != rebootXML {
		t.Errorf("reboot body = %q, want %q", gotBody, rebootXML)
	}

	c.mu.Lock()
	if c.verificationToken != "T2" {
		t.Errorf("verificationToken after reboot = %q, want rolled value %q", c.verificationToken, "T2")
	}
	c.mu.Unlock()
}

// TestEncryptRoundTrip serves a public key whose modulus is base64-encoded
// and whose exponent is hex-encoded (the two primary decode paths), then
// verifies the ciphertext Encrypt produces decrypts back to the payload
// under the matching private key, and that a rolled verification token from
// the publickey response is captured.
func TestEncryptRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var gotVerifTok string
	mux := http.NewServeMux()
	mux.HandleFunc(sesTokPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<response><SesInfo>S</SesInfo><TokInfo>T</TokInfo></response>`)
	})
	mux.HandleFunc(publicKeyPath, func(w http.ResponseWriter, r *http.Request) {
		gotVerifTok = r.Header.Get(verifTokHeader)
		w.Header().Set(verifTokHeader, "T2")
		fmt.Fprintf(w, `<response><encpubkeyn>%s</encpubkeyn><encpubkeye>010001</encpubkeye></response>`,
			base64.StdEncoding.EncodeToString(key.N.Bytes()))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Listener.Addr().String(), 5*time.Second)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	const payload = "admin-password"
	ciphertext, err := c.Encrypt(context.Background(), payload)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if gotVerifTok != "T" {
		t.Errorf("verification token sent = %q, want %q", gotVerifTok, "T")
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatalf("ciphertext is not base64: %v", err)
	}
	plaintext, err := rsa.DecryptPKCS1v15(nil, key, raw)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plaintext) != payload {
		t.Errorf("decrypted payload = %q, want %q", plaintext, payload)
	}

	c.mu.Lock()
	if c.verificationToken != "T2" {
		t.Errorf("verificationToken after encrypt = %q, want rolled value %q", c.verificationToken, "T2")
	}
	c.mu.Unlock()
}

func TestEncryptBeforeInitFails(t *testing.T) {
	c := New("192.0.2.1", time.Second)
	if _, err := c.Encrypt(context.Background(), "x"); err == nil {
		t.Fatal("Encrypt before Init: got nil error, want failure")
	}
}

func TestRebootBeforeInitFails(t *testing.T) {
	c := New("192.0.2.1", time.Second)
	if err := c.Reboot(context.Background()); err == nil {
		t.Fatal("Reboot before Init: got nil error, want failure")
	}
}

func TestRebootNonOKResponseFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(sesTokPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<response><SesInfo>S</SesInfo><TokInfo>T</TokInfo></response>`)
	})
	mux.HandleFunc(controlPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<error><code>125003</code></error>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Listener.Addr().String(), 5*time.Second)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Reboot(context.Background()); err == nil {
		t.Fatal("Reboot with error response: got nil error, want failure")
	}
}

func TestInitMissingTagFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(sesTokPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<response><SesInfo>S</SesInfo></response>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Listener.Addr().String(), 5*time.Second)
	if err := c.Init(context.Background()); err == nil {
		t.Fatal("Init with missing TokInfo: got nil error, want failure")
	}
}
