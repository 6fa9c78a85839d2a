package jsonrpc

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	ledgererrors "github.com/kanteakoisi/GreenPledge/errors"
	"github.com/kanteakoisi/GreenPledge/interfaces"
	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/kanteakoisi/GreenPledge/types"
	"github.com/kanteakoisi/GreenPledge/utils"
)

// --- Error mapping ---

// rpcErrorCodes maps categorical ledger error codes to JSON-RPC codes so
// callers can branch without string matching.
var rpcErrorCodes = map[ledgererrors.LedgerErrorCode]int{
	ledgererrors.ErrCodeUnauthorized:          -32001,
	ledgererrors.ErrCodeInvalidMinter:         -32002,
	ledgererrors.ErrCodePaused:                -32003,
	ledgererrors.ErrCodeAlreadyRegistered:     -32004,
	ledgererrors.ErrCodeInsufficientBalance:   -32005,
	ledgererrors.ErrCodeNotFound:              -32006,
	ledgererrors.ErrCodeMismatch:              -32007,
	ledgererrors.ErrCodeInvalidAmount:         -32010,
	ledgererrors.ErrCodeInvalidRecipient:      -32011,
	ledgererrors.ErrCodeSenderEqualsRecipient: -32012,
	ledgererrors.ErrCodeMetadataTooLong:       -32013,
	ledgererrors.ErrCodeURITooLong:            -32014,
}

func toJRPC2Error(err error) error {
	if err == nil {
		return nil
	}
	code := ledgererrors.CodeOf(err)
	rpcCode, ok := rpcErrorCodes[code]
	if !ok {
		logx.Error("JSONRPC", "Internal error: ", err.Error())
		return jrpc2.Errorf(jrpc2.InternalError, "%s", ledgererrors.ErrMsgInternal)
	}
	var le *ledgererrors.LedgerError
	if e, isLedger := err.(*ledgererrors.LedgerError); isLedger {
		le = e
	} else {
		le = &ledgererrors.LedgerError{Code: code, Message: err.Error()}
	}
	return jrpc2.Errorf(jrpc2.Code(rpcCode), "%s", le.Message).WithData(le)
}

// --- Params/Results ---
// Amounts travel as decimal strings on the wire.

type callerParams struct {
	Caller string `json:"caller"`
}

type setAdminParams struct {
	Caller   string `json:"caller"`
	NewAdmin string `json:"new_admin"`
}

type minterParams struct {
	Caller string `json:"caller"`
	Target string `json:"target"`
}

type mintParams struct {
	Caller    string `json:"caller"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Metadata  string `json:"metadata"`
}

type mintResult struct {
	RecordIndex uint64 `json:"record_index"`
}

type transferParams struct {
	Caller    string `json:"caller"`
	Amount    string `json:"amount"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Memo      string `json:"memo,omitempty"`
}

type burnParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type verifyCreditParams struct {
	Index     uint64 `json:"index"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type verifyCreditResult struct {
	Verified bool `json:"verified"`
}

type updateMetadataParams struct {
	Caller   string `json:"caller"`
	Index    uint64 `json:"index"`
	Metadata string `json:"metadata"`
}

type setTokenURIParams struct {
	Caller string `json:"caller"`
	URI    string `json:"uri"`
}

type okResult struct {
	Ok bool `json:"ok"`
}

type identityParams struct {
	Identity string `json:"identity"`
}

type balanceResult struct {
	Identity string `json:"identity"`
	Balance  string `json:"balance"`
}

type totalSupplyResult struct {
	TotalSupply string `json:"total_supply"`
}

type recordIndexParams struct {
	Index uint64 `json:"index"`
}

type mintRecordResult struct {
	Index     uint64 `json:"index"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Metadata  string `json:"metadata"`
	Timestamp uint64 `json:"timestamp"`
}

type mintCountResult struct {
	MintCount uint64 `json:"mint_count"`
}

type isMinterResult struct {
	Identity string `json:"identity"`
	IsMinter bool   `json:"is_minter"`
}

type isPausedResult struct {
	Paused bool `json:"paused"`
}

type adminResult struct {
	Admin string `json:"admin"`
}

type tokenURIResult struct {
	URI string `json:"uri"`
}

type infoResult struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type digestResult struct {
	Digest string `json:"digest"`
}

// --- Server ---

type Server struct {
	addr       string
	ledger     interfaces.CreditLedger
	corsConfig CORSConfig
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func NewServer(addr string, ledger interfaces.CreditLedger) *Server {
	return &Server{
		addr:   addr,
		ledger: ledger,
	}
}

// SetCORSConfig allows configuring CORS settings
func (s *Server) SetCORSConfig(config CORSConfig) {
	s.corsConfig = config
}

// Start registers the JSON-RPC bridge on mux. The caller owns the listener
// lifecycle.
func (s *Server) Start(mux *http.ServeMux) {
	methods := s.buildMethodMap()
	jh := jhttp.NewBridge(methods, &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		jh.ServeHTTP(w, r)
	})

	mux.Handle("/", h)
	logx.Info("JSONRPC", "JSON-RPC server registered on ", s.addr)
}

// Build jrpc2 method map
func (s *Server) buildMethodMap() handler.Map {
	return handler.Map{
		"ledger.setAdmin": handler.New(func(ctx context.Context, p setAdminParams) (*okResult, error) {
			if err := s.ledger.SetAdmin(types.Identity(p.Caller), types.Identity(p.NewAdmin)); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.pause": handler.New(func(ctx context.Context, p callerParams) (*okResult, error) {
			if err := s.ledger.Pause(types.Identity(p.Caller)); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.unpause": handler.New(func(ctx context.Context, p callerParams) (*okResult, error) {
			if err := s.ledger.Unpause(types.Identity(p.Caller)); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.addMinter": handler.New(func(ctx context.Context, p minterParams) (*okResult, error) {
			if err := s.ledger.AddMinter(types.Identity(p.Caller), types.Identity(p.Target)); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.removeMinter": handler.New(func(ctx context.Context, p minterParams) (*okResult, error) {
			if err := s.ledger.RemoveMinter(types.Identity(p.Caller), types.Identity(p.Target)); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.mint": handler.New(func(ctx context.Context, p mintParams) (*mintResult, error) {
			amount, err := utils.ParseAmount(p.Amount)
			if err != nil {
				return nil, toJRPC2Error(ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount))
			}
			index, err := s.ledger.Mint(types.Identity(p.Caller), amount, types.Identity(p.Recipient), p.Metadata)
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &mintResult{RecordIndex: index}, nil
		}),
		"ledger.transfer": handler.New(func(ctx context.Context, p transferParams) (*okResult, error) {
			amount, err := utils.ParseAmount(p.Amount)
			if err != nil {
				return nil, toJRPC2Error(ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount))
			}
			if err := s.ledger.Transfer(types.Identity(p.Caller), amount, types.Identity(p.Sender), types.Identity(p.Recipient), p.Memo); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.burn": handler.New(func(ctx context.Context, p burnParams) (*okResult, error) {
			amount, err := utils.ParseAmount(p.Amount)
			if err != nil {
				return nil, toJRPC2Error(ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount))
			}
			if err := s.ledger.Burn(types.Identity(p.Caller), amount); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.verifyCredit": handler.New(func(ctx context.Context, p verifyCreditParams) (*verifyCreditResult, error) {
			amount, err := utils.ParseAmount(p.Amount)
			if err != nil {
				return nil, toJRPC2Error(ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount))
			}
			if err := s.ledger.VerifyCredit(p.Index, types.Identity(p.Recipient), amount); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &verifyCreditResult{Verified: true}, nil
		}),
		"ledger.updateMetadata": handler.New(func(ctx context.Context, p updateMetadataParams) (*okResult, error) {
			if err := s.ledger.UpdateMetadata(types.Identity(p.Caller), p.Index, p.Metadata); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.setTokenUri": handler.New(func(ctx context.Context, p setTokenURIParams) (*okResult, error) {
			if err := s.ledger.SetTokenURI(types.Identity(p.Caller), p.URI); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &okResult{Ok: true}, nil
		}),
		"ledger.getBalance": handler.New(func(ctx context.Context, p identityParams) (*balanceResult, error) {
			balance, err := s.ledger.Balance(types.Identity(p.Identity))
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &balanceResult{Identity: p.Identity, Balance: utils.Uint256ToString(balance)}, nil
		}),
		"ledger.getTotalSupply": handler.New(func(ctx context.Context) (*totalSupplyResult, error) {
			supply, err := s.ledger.TotalSupply()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &totalSupplyResult{TotalSupply: utils.Uint256ToString(supply)}, nil
		}),
		"ledger.getMintRecord": handler.New(func(ctx context.Context, p recordIndexParams) (*mintRecordResult, error) {
			record, err := s.ledger.MintRecord(p.Index)
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			if record == nil {
				return nil, toJRPC2Error(ledgererrors.NewError(ledgererrors.ErrCodeNotFound, ledgererrors.ErrMsgNotFound))
			}
			return &mintRecordResult{
				Index:     p.Index,
				Amount:    utils.Uint256ToString(record.Amount),
				Recipient: string(record.Recipient),
				Metadata:  record.Metadata,
				Timestamp: record.Timestamp,
			}, nil
		}),
		"ledger.getMintCount": handler.New(func(ctx context.Context) (*mintCountResult, error) {
			count, err := s.ledger.MintCount()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &mintCountResult{MintCount: count}, nil
		}),
		"ledger.isMinter": handler.New(func(ctx context.Context, p identityParams) (*isMinterResult, error) {
			isMinter, err := s.ledger.IsMinter(types.Identity(p.Identity))
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &isMinterResult{Identity: p.Identity, IsMinter: isMinter}, nil
		}),
		"ledger.isPaused": handler.New(func(ctx context.Context) (*isPausedResult, error) {
			paused, err := s.ledger.IsPaused()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &isPausedResult{Paused: paused}, nil
		}),
		"ledger.getAdmin": handler.New(func(ctx context.Context) (*adminResult, error) {
			admin, err := s.ledger.Admin()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &adminResult{Admin: string(admin)}, nil
		}),
		"ledger.getTokenUri": handler.New(func(ctx context.Context) (*tokenURIResult, error) {
			uri, err := s.ledger.TokenURI()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &tokenURIResult{URI: uri}, nil
		}),
		"ledger.getInfo": handler.New(func(ctx context.Context) (*infoResult, error) {
			info := s.ledger.Info()
			return &infoResult{Name: info.Name, Symbol: info.Symbol, Decimals: info.Decimals}, nil
		}),
		"ledger.getDigest": handler.New(func(ctx context.Context) (*digestResult, error) {
			digest, err := s.ledger.Digest()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &digestResult{Digest: hex.EncodeToString(digest[:])}, nil
		}),
	}
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, allowed := range s.corsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			break
		}
	}
	if len(s.corsConfig.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.corsConfig.AllowedMethods, ", "))
	}
	if len(s.corsConfig.AllowedHeaders) > 0 {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.corsConfig.AllowedHeaders, ", "))
	}
}
