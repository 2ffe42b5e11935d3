package socks5

import (
	"bytes"
	"net"
	"testing"
)

func TestReadGreeting(t *testing.T) {
	buf := bytes.NewReader([]byte{0x05, 0x02, 0x00, 0x02})
	methods, err := readGreeting(buf)
	if err != nil {
		t.Fatalf("readGreeting: %v", err)
	}
	if !bytes.Equal(methods, []byte{0x00, 0x02}) {
		t.Fatalf("unexpected methods: %v", methods)
	}
}

func TestReadGreetingBadVersion(t *testing.T) {
	buf := bytes.NewReader([]byte{0x04, 0x01, 0x00})
	if _, err := readGreeting(buf); err == nil {
		t.Fatal("expected error for bad version")
	}
}

func TestWriteMethodSelection(t *testing.T) {
	var buf bytes.Buffer
	if err := writeMethodSelection(&buf, methodUserPass); err != nil {
		t.Fatalf("writeMethodSelection: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x05, 0x02}) {
		t.Fatalf("unexpected bytes: %v", buf.Bytes())
	}
}

func TestUserPassAuthRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x01, 0x05, 'm', 'o', 'd', 'e', 'm', 0x04, 'p', 'a', 's', 's'})
	user, pass, err := readUserPassAuth(&buf)
	if err != nil {
		t.Fatalf("readUserPassAuth: %v", err)
	}
	if user != "modem" || pass != "pass" {
		t.Fatalf("got user=%q pass=%q", user, pass)
	}
}

func TestWriteAuthReply(t *testing.T) {
	var buf bytes.Buffer
	if err := writeAuthReply(&buf, true); err != nil {
		t.Fatalf("writeAuthReply: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x00}) {
		t.Fatalf("unexpected success reply: %v", buf.Bytes())
	}

	buf.Reset()
	if err := writeAuthReply(&buf, false); err != nil {
		t.Fatalf("writeAuthReply: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x01}) {
		t.Fatalf("unexpected failure reply: %v", buf.Bytes())
	}
}

func TestReadRequestIPv4(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x05, 0x01, 0x00, 0x01, 93, 184, 216, 34, 0x01, 0xbb})
	cmd, addr, err := readRequest(&buf)
	if err != nil {
		t.Fatalf("readRequest: %v", err)
	}
	if cmd != cmdConnect {
		t.Fatalf("unexpected cmd: %v", cmd)
	}
	if !addr.IP.Equal(net.IPv4(93, 184, 216, 34)) {
		t.Fatalf("unexpected ip: %v", addr.IP)
	}
	if addr.Port != 443 {
		t.Fatalf("unexpected port: %d", addr.Port)
	}
}

func TestReadRequestDomainRejectedAtSession(t *testing.T) {
	var buf bytes.Buffer
	domain := "example.com"
	buf.WriteByte(0x05)
	buf.WriteByte(0x01)
	buf.WriteByte(0x00)
	buf.WriteByte(0x03)
	buf.WriteByte(byte(len(domain)))
	buf.WriteString(domain)
	buf.Write([]byte{0x00, 0x50})

	_, addr, err := readRequest(&buf)
	if err != nil {
		t.Fatalf("readRequest: %v", err)
	}
	if !addr.isDomain() || addr.Domain != domain {
		t.Fatalf("expected domain address, got %+v", addr)
	}
}

func TestWriteReplyEchoesAddress(t *testing.T) {
	var buf bytes.Buffer
	addr := address{IP: net.IPv4(1, 2, 3, 4), Port: 80}
	if err := writeReply(&buf, replySucceeded, addr); err != nil {
		t.Fatalf("writeReply: %v", err)
	}
	want := []byte{0x05, 0x00, 0x00, 0x01, 1, 2, 3, 4, 0x00, 0x50}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %v want %v", buf.Bytes(), want)
	}
}
