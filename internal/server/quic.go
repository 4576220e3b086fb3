package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/wargrid/wargrid/internal/core/observability/log"
)

// queryProto is the ALPN protocol name of the QUIC query surface.
const queryProto = "wargrid-query-v1"

// queryRequest is one length-prefixed frame on a QUIC query stream.
type queryRequest struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data,omitempty"`
}

// queryResponse answers one queryRequest on the same stream.
type queryResponse struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// startQUIC binds the QUIC listener and starts its accept loop. Only probe
// ops travel over QUIC; commits go through HTTP where the response codes
// carry rule context.
func (s *Server) startQUIC(ctx context.Context) error {
	tlsConf, err := GenerateSelfSignedTLS()
	if err != nil {
		return fmt.Errorf("server: quic tls: %w", err)
	}
	ln, err := quic.ListenAddr(s.cfg.QUICAddr, tlsConf, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 15 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("server: quic listen %s: %w", s.cfg.QUICAddr, err)
	}
	s.quicLn = ln
	s.logger.Info("quic listening", log.String("addr", ln.Addr().String()))

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				select {
				case <-s.stopChan:
				case <-ctx.Done():
				default:
					s.logger.Error("quic accept", log.Error(err))
				}
				return
			}
			s.workers.Add(1)
			go func() {
				defer s.workers.Done()
				s.serveQUICConn(ctx, conn)
			}()
		}
	}()
	return nil
}

func (s *Server) serveQUICConn(ctx context.Context, conn *quic.Conn) {
	s.trackSession(1)
	defer s.trackSession(-1)
	defer func() { _ = conn.CloseWithError(0, "bye") }()

	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			s.serveQUICStream(ctx, stream)
		}()
	}
}

// serveQUICStream answers one request per stream: read a frame, dispatch,
// write a frame, close.
func (s *Server) serveQUICStream(ctx context.Context, stream *quic.Stream) {
	defer func() { _ = stream.Close() }()

	payload, err := readFrame(stream, s.cfg.MaxFrameSize)
	if err != nil {
		s.logger.Debug("quic read frame", log.Error(err))
		return
	}
	var req queryRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeQUICError(stream, fmt.Sprintf("bad frame: %v", err))
		return
	}

	data, err := s.dispatchQuery(ctx, req)
	if err != nil {
		s.writeQUICError(stream, err.Error())
		return
	}
	body, err := json.Marshal(queryResponse{OK: true, Data: data})
	if err != nil {
		s.writeQUICError(stream, "encoding failed")
		return
	}
	if err := writeFrame(stream, body); err != nil {
		s.logger.Debug("quic write frame", log.Error(err))
	}
}

func (s *Server) dispatchQuery(ctx context.Context, req queryRequest) (json.RawMessage, error) {
	marshal := func(v any, err error) (json.RawMessage, error) {
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	switch req.Op {
	case "state":
		return marshal(s.b.State(), nil)
	case "units":
		return marshal(UnitsOutput{Units: s.b.Roster().Units()}, nil)
	case "move.validate":
		var in MoveInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		return marshal(s.b.ValidateMove(in.Unit, in.Target), nil)
	case "deploy.validate":
		var in DeployInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		return marshal(s.b.ValidateDeployment(in.Unit, in.Position), nil)
	case "path.clear":
		var in PathInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		clear, err := s.b.PathClear(in.Unit, in.To)
		return marshal(PathOutput{Clear: clear}, err)
	case "sight":
		var in SightInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		visible, err := s.b.LineOfSight(in.From, in.To)
		if err != nil {
			return nil, err
		}
		unitsBlock, err := s.b.UnitsBlockSight(in.From, in.To)
		return marshal(SightOutput{Visible: visible, UnitsBlock: unitsBlock}, err)
	case "visibility":
		var in VisibilityInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		fraction, err := s.b.Visibility(in.From, in.To, in.Samples)
		return marshal(VisibilityOutput{Fraction: fraction}, err)
	case "cover":
		var in CoverInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		covered, err := s.b.CoverFrom(in.Unit, in.Direction)
		return marshal(CoverOutput{Covered: covered}, err)
	case "nearest.free":
		var in NearestFreeInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		pos, err := s.b.NearestFree(in.Position, in.Radius)
		return marshal(NearestFreeOutput{Position: pos}, err)
	case "suggest":
		var in SuggestInput
		if err := json.Unmarshal(req.Data, &in); err != nil {
			return nil, err
		}
		moves, err := s.scorer.Rank(ctx, in.Unit, in.Candidates)
		return marshal(SuggestOutput{Moves: moves}, err)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownOp, req.Op)
	}
}

func (s *Server) writeQUICError(stream *quic.Stream, msg string) {
	body, err := json.Marshal(queryResponse{Error: msg})
	if err != nil {
		return
	}
	_ = writeFrame(stream, body)
}

// readFrame reads one 4-byte big-endian length prefixed payload.
func readFrame(r io.Reader, maxSize int) ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(head[:])
	if int(n) > maxSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit %d", n, maxSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var head [4]byte
	binary.BigEndian.PutUint32(head[:], uint32(len(payload)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// GenerateSelfSignedTLS builds a throwaway localhost certificate for
// development QUIC listeners. Production deployments provide real
// certificates through the reverse proxy instead.
func GenerateSelfSignedTLS() (*tls.Config, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"wargrid"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{certDER},
			PrivateKey:  privateKey,
		}},
		NextProtos: []string{queryProto},
	}, nil
}
