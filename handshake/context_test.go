// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handshake

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"kowi.dev/asn1/cursor"
)

// fakeTranscript is a stand-in for a real running hash: it just counts how
// many messages have been recorded, which is enough to tell that Perform
// recorded the right number of messages in the right order.
type fakeTranscript struct {
	n       int
	history []byte
}

func (t *fakeTranscript) Write(msg []byte) {
	t.n++
	t.history = append(t.history, byte(t.n))
}

func (t *fakeTranscript) Sum() []byte {
	return append([]byte(nil), t.history...)
}

// pipeTransport connects a client and server Context via Go channels,
// simulating the record layer boundary in-process rather than over a real
// socket.
type pipeTransport struct {
	out       chan<- []byte
	in        <-chan []byte
	closeOnce *sync.Once
}

func (t *pipeTransport) Send(msg []byte) (Result, error) {
	t.out <- append([]byte(nil), msg...)
	return Success, nil
}

func (t *pipeTransport) Recv() (HandshakeType, []byte, Result, error) {
	msg, ok := <-t.in
	if !ok {
		return 0, nil, Failure, errors.New("pipe closed")
	}
	n := int(msg[1])<<16 | int(msg[2])<<8 | int(msg[3])
	return HandshakeType(msg[0]), msg[4 : 4+n], Success, nil
}

// SendAlert closes the outbound channel after reporting the alert, so the
// peer's next Recv unblocks with "pipe closed" instead of hanging forever
// waiting for a message that will never arrive.
func (t *pipeTransport) SendAlert(a Alert) (Result, error) {
	t.closeOnce.Do(func() { close(t.out) })
	return Success, errors.New("alert sent")
}

func (t *pipeTransport) HandshakeCompleted() {}

func newPipe() (client, server *pipeTransport) {
	c2s := make(chan []byte, 16)
	s2c := make(chan []byte, 16)
	var onceC2S, onceS2C sync.Once
	return &pipeTransport{out: c2s, in: s2c, closeOnce: &onceC2S},
		&pipeTransport{out: s2c, in: c2s, closeOnce: &onceS2C}
}

// echoCallbacks builds a send callback that writes name's bytes and a recv
// callback that just drains whatever was sent, for messages whose content
// this test does not care about.
func echoCallbacks(name string) Callbacks {
	return Callbacks{
		Send: func(ctx *Context, buf *bytes.Buffer) error {
			buf.WriteString(name)
			return nil
		},
		Recv: func(ctx *Context, c *cursor.Cursor) error {
			_, ok := c.ReadFixed(c.Remaining())
			if !ok {
				return errors.New("unreachable")
			}
			return nil
		},
	}
}

func runHandshake(t *testing.T, variant Variant, clientIDs, serverIDs []MessageID) (clientErr, serverErr error) {
	t.Helper()
	clientTransport, serverTransport := newPipe()

	clientCB := map[MessageID]Callbacks{}
	serverCB := map[MessageID]Callbacks{}
	for _, id := range clientIDs {
		clientCB[id] = echoCallbacks(id.String())
	}
	for _, id := range serverIDs {
		serverCB[id] = echoCallbacks(id.String())
	}
	// Every message needs a recv on whichever side does not send it.
	for _, id := range clientIDs {
		if _, ok := serverCB[id]; !ok {
			serverCB[id] = echoCallbacks(id.String())
		}
	}
	for _, id := range serverIDs {
		if _, ok := clientCB[id]; !ok {
			clientCB[id] = echoCallbacks(id.String())
		}
	}

	client := NewContext(variant, RoleClient, clientCB)
	client.Transport = clientTransport
	client.Transcript = &fakeTranscript{}

	server := NewContext(variant, RoleServer, serverCB)
	server.Transport = serverTransport
	server.Transcript = &fakeTranscript{}

	clientDone := make(chan error, 1)
	serverDone := make(chan error, 1)
	go func() {
		_, err := client.Perform()
		clientDone <- err
	}()
	go func() {
		_, err := server.Perform()
		serverDone <- err
	}()
	clientErr = <-clientDone
	serverErr = <-serverDone
	return clientErr, serverErr
}

func TestPerform_NegotiatedWithoutHRRWithoutCR(t *testing.T) {
	variant := Negotiated | WithoutHRR | WithoutCR
	clientIDs := []MessageID{MessageClientHello, MessageClientFinished}
	serverIDs := []MessageID{
		MessageServerHello, MessageServerEncryptedExtensions,
		MessageServerCertificate, MessageServerCertificateVerify, MessageServerFinished,
	}
	clientErr, serverErr := runHandshake(t, variant, clientIDs, serverIDs)
	if clientErr != nil {
		t.Errorf("client Perform() error = %v", clientErr)
	}
	if serverErr != nil {
		t.Errorf("server Perform() error = %v", serverErr)
	}
}

func TestPerform_WithPSK(t *testing.T) {
	variant := Negotiated | WithoutHRR | WithPSK
	clientIDs := []MessageID{MessageClientHello, MessageClientFinished}
	serverIDs := []MessageID{MessageServerHello, MessageServerEncryptedExtensions, MessageServerFinished}
	clientErr, serverErr := runHandshake(t, variant, clientIDs, serverIDs)
	if clientErr != nil {
		t.Errorf("client Perform() error = %v", clientErr)
	}
	if serverErr != nil {
		t.Errorf("server Perform() error = %v", serverErr)
	}
}

func TestPerform_TrailingData(t *testing.T) {
	variant := Negotiated | WithoutHRR | WithoutCR
	drainRecv := func(ctx *Context, c *cursor.Cursor) error {
		_, ok := c.ReadFixed(c.Remaining())
		if !ok {
			return errors.New("unreachable")
		}
		return nil
	}
	sendOnly := func(name string) Callbacks {
		return Callbacks{Send: func(ctx *Context, buf *bytes.Buffer) error { buf.WriteString(name); return nil }}
	}

	clientCB := map[MessageID]Callbacks{
		MessageClientHello:               sendOnly("ClientHello"),
		MessageClientFinished:            sendOnly("Finished"),
		MessageServerHello:               {Recv: drainRecv},
		MessageServerEncryptedExtensions: {Recv: drainRecv},
		MessageServerCertificate:         {Recv: drainRecv},
		MessageServerCertificateVerify:   {Recv: drainRecv},
		// Deliberately does not consume the body, leaving the cursor
		// non-empty so the sequencer reports TRAILING_DATA.
		MessageServerFinished: {Recv: func(ctx *Context, c *cursor.Cursor) error { return nil }},
	}
	serverCB := map[MessageID]Callbacks{
		MessageClientHello:               {Recv: drainRecv},
		MessageClientFinished:            {Recv: drainRecv},
		MessageServerHello:               sendOnly("ServerHello"),
		MessageServerEncryptedExtensions: sendOnly("EE"),
		MessageServerCertificate:         sendOnly("Cert"),
		MessageServerCertificateVerify:   sendOnly("CV"),
		MessageServerFinished:            sendOnly("Finished"),
	}

	clientTransport, serverTransport := newPipe()
	client := NewContext(variant, RoleClient, clientCB)
	client.Transport = clientTransport
	server := NewContext(variant, RoleServer, serverCB)
	server.Transport = serverTransport

	clientDone := make(chan error, 1)
	serverDone := make(chan error, 1)
	go func() { _, err := client.Perform(); clientDone <- err }()
	go func() { _, err := server.Perform(); serverDone <- err }()
	err1 := <-clientDone
	err2 := <-serverDone
	if err1 == nil {
		t.Error("expected the client to report a trailing-data alert")
	}
	_ = err2
}

func TestPerform_UnexpectedMessage(t *testing.T) {
	variant := Negotiated | WithoutHRR | WithoutCR
	ctx := NewContext(variant, RoleClient, map[MessageID]Callbacks{
		MessageClientHello: echoCallbacks("ClientHello"),
	})
	clientTransport, serverTransport := newPipe()
	ctx.Transport = clientTransport

	// The server sends a Certificate (type 11) when the client is expecting
	// a ServerHello (type 2): that is a hard mismatch, unlike the
	// CertificateRequest/Certificate special case.
	go func() {
		<-serverTransport.in // drain ClientHello
		serverTransport.Send(frameMessage(HandshakeTypeCertificate, []byte("oops")))
	}()

	_, err := ctx.Perform()
	if err == nil {
		t.Fatal("expected an error for an unexpected message type")
	}
}

func TestRecvAction_MismatchSkipsVersionCheck(t *testing.T) {
	// A message-type mismatch must be reported immediately, without ever
	// invoking the recv callback or consulting NegotiatedVersion - both of
	// which only run once the type actually matched what was expected.
	clientTransport, serverTransport := newPipe()
	defer close(serverTransport.out)

	recvCalled := false
	versionChecked := false
	ctx := NewContext(Negotiated|WithoutHRR|WithoutCR, RoleClient, map[MessageID]Callbacks{
		MessageServerHello: {Recv: func(ctx *Context, c *cursor.Cursor) error {
			recvCalled = true
			return nil
		}},
	})
	ctx.Transport = clientTransport
	ctx.NegotiatedVersion = func() bool {
		versionChecked = true
		return true
	}

	serverTransport.Send(frameMessage(HandshakeTypeCertificate, []byte("oops")))

	_, err := ctx.recvAction(MessageServerHello, actionTable[MessageServerHello])
	if err == nil {
		t.Fatal("expected an error for an unexpected message type")
	}
	if recvCalled {
		t.Error("recv callback ran despite a message-type mismatch")
	}
	if versionChecked {
		t.Error("NegotiatedVersion was consulted despite a message-type mismatch")
	}
}

func TestPerform_BootstrapReachesNegotiationComplete(t *testing.T) {
	// Variant 0's table always walks all four bootstrap slots (there is no
	// way to know ahead of time whether the server will send a
	// HelloRetryRequest), so every one of them needs a callback here even
	// though this particular exchange never produces a real retry; once
	// ServerHello is processed, Perform must stop and hand control back
	// rather than attempt to reach APPLICATION_DATA on a table that does
	// not contain it.
	clientTransport, serverTransport := newPipe()

	clientIDs := []MessageID{MessageClientHello, MessageClientHelloRetry}
	serverIDs := []MessageID{MessageServerHelloRetryRequest, MessageServerHello}
	clientCB := map[MessageID]Callbacks{}
	serverCB := map[MessageID]Callbacks{}
	for _, id := range clientIDs {
		clientCB[id] = echoCallbacks(id.String())
		serverCB[id] = echoCallbacks(id.String())
	}
	for _, id := range serverIDs {
		serverCB[id] = echoCallbacks(id.String())
		clientCB[id] = echoCallbacks(id.String())
	}

	client := NewContext(0, RoleClient, clientCB)
	client.Transport = clientTransport

	server := NewContext(0, RoleServer, serverCB)
	server.Transport = serverTransport

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 2)
	go func() { res, err := client.Perform(); done <- outcome{res, err} }()
	go func() { res, err := server.Perform(); done <- outcome{res, err} }()
	o1 := <-done
	o2 := <-done

	for _, o := range []outcome{o1, o2} {
		if o.err != nil {
			t.Errorf("Perform() error = %v, want nil", o.err)
		}
		if o.res != NegotiationComplete {
			t.Errorf("Perform() result = %v, want NegotiationComplete", o.res)
		}
	}
}

func TestValidateTables(t *testing.T) {
	if err := ValidateTables(); err != nil {
		t.Fatalf("ValidateTables() = %v, want nil", err)
	}
}

func TestValidateCallbacks_Missing(t *testing.T) {
	err := ValidateCallbacks(Negotiated|WithoutHRR|WithoutCR, RoleClient, nil)
	if err == nil {
		t.Fatal("expected an error for missing callbacks")
	}
}

func TestValidateCallbacks_UnknownVariant(t *testing.T) {
	err := ValidateCallbacks(Variant(0xff), RoleClient, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown variant")
	}
}

func TestMessageID_String(t *testing.T) {
	if got := MessageApplicationData.String(); got != "ApplicationData" {
		t.Errorf("String() = %q, want %q", got, "ApplicationData")
	}
	if got := MessageID(200).String(); got != "MessageID(200)" {
		t.Errorf("String() = %q, want fallback form", got)
	}
}
