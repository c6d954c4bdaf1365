/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

// Package controlapi is the reference HTTP surface over the Lifecycle
// Manager: load/unload/uninstall components, list tools, call a tool, and
// attach/detach/grant component policy. It is explicitly not a conformant
// tool-protocol transport (stdio framing, HTTP/SSE, streamable HTTP are out
// of scope); it exists to give the core a concrete, demonstrable consumer.
package controlapi

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"componenthost/src/config"
	"componenthost/src/internal/audit"
	"componenthost/src/internal/events"
	"componenthost/src/internal/lifecycle"
	"componenthost/src/internal/middleware"
	"componenthost/src/internal/utils"
)

// Server wires the Lifecycle Manager into a gin router, recording audit
// events and broadcasting lifecycle events for every mutating operation.
type Server struct {
	router              *gin.Engine
	manager             *lifecycle.Manager
	auditDB             *audit.DB
	broadcaster         *events.Broadcaster
	upgrader            websocket.Upgrader
	builtinToolsEnabled bool
}

// NewServer builds the control API router. auditDB and broadcaster may be
// nil, in which case audit recording / event broadcasting are skipped.
func NewServer(cfg *config.Server, manager *lifecycle.Manager, auditDB *audit.DB, broadcaster *events.Broadcaster) *Server {
	s := &Server{
		manager:             manager,
		auditDB:             auditDB,
		broadcaster:         broadcaster,
		builtinToolsEnabled: cfg.BuiltinToolsEnabled,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router := gin.Default()

	// The API only ever serves GET/POST/DELETE; advertising exactly that
	// keeps browser preflights honest.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:    []string{"Authorization", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.Use(middleware.Authenticate(middleware.Config{
		Secret:     cfg.JWT.SecretKey,
		Issuer:     cfg.JWT.Issuer,
		SkipPaths:  cfg.JWT.SkipPaths,
		SkipVerify: cfg.JWT.SkipValidation,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/tools", s.handleListTools)
	router.POST("/tools/:name/call", s.handleCallTool)

	router.GET("/components", s.handleListComponents)
	router.POST("/components", middleware.RequireAnyScope("components:write"), s.handleLoadComponent)
	router.DELETE("/components/:id", middleware.RequireAnyScope("components:write"), s.handleUnloadComponent)
	router.POST("/components/:id/uninstall", middleware.RequireAnyScope("components:write"), s.handleUninstallComponent)

	router.GET("/components/:id/schema", s.handleComponentSchema)

	router.GET("/components/:id/policy", s.handleGetPolicy)
	router.POST("/components/:id/policy", middleware.RequireAnyScope("policy:write"), s.handleAttachPolicy)
	router.DELETE("/components/:id/policy", middleware.RequireAnyScope("policy:write"), s.handleDetachPolicy)
	router.POST("/components/:id/permissions", middleware.RequireAnyScope("permissions:write"), s.handleGrantPermission)

	router.GET("/events", s.handleEventStream)

	s.router = router
	return s
}

// handleEventStream upgrades the connection to a WebSocket and registers it
// as a lifecycle-event subscriber until the client disconnects.
func (s *Server) handleEventStream(c *gin.Context) {
	if s.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream is not configured"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogError("failed to upgrade event stream connection", err)
		return
	}

	transport := events.NewWebSocketTransport(conn)
	sub, err := s.broadcaster.Register(transport)
	if err != nil {
		utils.LogWarn("rejected event subscriber", err)
		_ = transport.Close(1013, "try again later")
		return
	}

	// Drain inbound frames (control frames only are expected) until the
	// client disconnects, so the read side doesn't block indefinitely.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.broadcaster.Unregister(sub.ID)
}

// loadOrCreateCert returns the key pair from certDir, minting a self-signed
// ECDSA certificate on first start so development setups work without any
// provisioning. Production deployments drop their own server.crt/server.key
// into certDir instead.
func loadOrCreateCert(certDir string) (tls.Certificate, error) {
	certPath := filepath.Join(certDir, "server.crt")
	keyPath := filepath.Join(certDir, "server.key")

	if cert, err := tls.LoadX509KeyPair(certPath, keyPath); err == nil {
		log.Printf("control API: loaded TLS key pair from %s", certDir)
		return cert, nil
	}

	log.Printf("control API: no usable TLS key pair in %s, minting a self-signed one", certDir)
	if err := os.MkdirAll(certDir, 0o755); err != nil {
		return tls.Certificate{}, fmt.Errorf("create cert directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate TLS key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("pick certificate serial: %w", err)
	}

	// NotBefore is backdated an hour so clock skew between the host and a
	// client doesn't make a freshly minted certificate unusable.
	tmpl := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "componenthost control API"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("encode TLS key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return tls.Certificate{}, fmt.Errorf("write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return tls.Certificate{}, fmt.Errorf("write %s: %w", keyPath, err)
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}

// Start serves the control API over TLS on the given port, blocking until
// the listener fails.
func (s *Server) Start(port string, certDir string) error {
	if port == "" {
		return fmt.Errorf("control API port is not configured")
	}

	cert, err := loadOrCreateCert(certDir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}
	log.Printf("control API: listening on :%s", port)
	return srv.ListenAndServeTLS("", "")
}

// Shutdown gracefully stops the event broadcaster. The caller is
// responsible for shutting down the underlying http.Server separately if
// graceful HTTP shutdown is required.
func (s *Server) Shutdown(ctx context.Context) {
	if s.broadcaster != nil {
		s.broadcaster.Shutdown()
	}
}

// GetRouter returns the gin router for testing purposes.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
