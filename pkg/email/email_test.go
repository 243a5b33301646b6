package email

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/config"
)

type received struct {
	from string
	rcpt []string
	data string
}

// fakeSMTP accepts one session on loopback and reports what it received.
func fakeSMTP(t *testing.T) (string, int, <-chan received) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan received, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		var got received
		_ = tp.PrintfLine("220 fake ready")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
				_ = tp.PrintfLine("250 fake")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				got.from = line[len("MAIL FROM:"):]
				_ = tp.PrintfLine("250 ok")
			case strings.HasPrefix(upper, "RCPT TO:"):
				got.rcpt = append(got.rcpt, line[len("RCPT TO:"):])
				_ = tp.PrintfLine("250 ok")
			case upper == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				got.data = strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 queued")
			case upper == "QUIT":
				_ = tp.PrintfLine("221 bye")
				out <- got
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port, out
}

func TestSMTPSenderDeliversHTML(t *testing.T) {
	host, port, out := fakeSMTP(t)
	sender := NewSMTPSender(config.MailConfig{
		Host:    host,
		Port:    port,
		From:    "no-reply@bazaar.local",
		Mode:    ModePlain,
		Timeout: 5 * time.Second,
	})

	msg := OTPMessage("buyer@example.com", "Confirm your account", "123456")
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-out:
		if !strings.Contains(got.from, "no-reply@bazaar.local") {
			t.Fatalf("unexpected MAIL FROM %q", got.from)
		}
		if len(got.rcpt) != 1 || !strings.Contains(got.rcpt[0], "buyer@example.com") {
			t.Fatalf("unexpected recipients %v", got.rcpt)
		}
		if !strings.Contains(got.data, "Content-Type: text/html; charset=utf-8") {
			t.Fatalf("missing html content type in %q", got.data)
		}
		if !strings.Contains(got.data, "Your OTP code is: <strong>123456</strong>") {
			t.Fatalf("missing code in %q", got.data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fake server received nothing")
	}
}

func TestSMTPSenderRejectsUnknownMode(t *testing.T) {
	sender := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: 1, Mode: "carrier-pigeon"})
	err := sender.Send(context.Background(), Message{To: []string{"a@b.c"}})
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}

func TestResetLinkMessageEscapesToken(t *testing.T) {
	msg := ResetLinkMessage("u@example.com", "https://shop.test/reset", "a.b+c")
	if !strings.Contains(msg.HTML, "https://shop.test/reset?token=a.b%2Bc") {
		t.Fatalf("unexpected link in %q", msg.HTML)
	}
}

func TestBuildMessageStripsHeaderNewlines(t *testing.T) {
	body := buildMessage("from@x", Message{To: []string{"a@x"}, Subject: "hi\r\nBcc: evil@x", HTML: "<p>x</p>"})
	if strings.Contains(body, "\r\nBcc:") {
		t.Fatalf("header injection not stripped: %q", body)
	}
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	if _, ok := NewSender(config.MailConfig{}, nil).(*LogSender); !ok {
		t.Fatal("expected log sender when host is empty")
	}
	if err := NewLogSender(nil).Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for message without recipients")
	}
}
