package curve

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/filter"
)

// Pump.fun protocol constants. The discriminator is the first 8 bytes of
// sha256("account:BondingCurve").
var (
	pumpFunProgram     = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	curveDiscriminator = []byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}
)

const (
	// 793.1M tokens sold over the curve for a 1B total supply.
	tokensSoldOnCurve = 793_100_000_000_000
	// 1.073B virtual tokens at curve start.
	virtualStart = 1_073_000_000_000_000

	lamportsPerSol = 1_000_000_000
)

// State is the deserialized on-chain bonding curve account.
type State struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// Reader fetches and interprets pump.fun bonding curve accounts.
// Implements filter.CurveReader.
type Reader struct {
	rpc *rpc.Client
}

func NewReader(rpcURL string) *Reader {
	return &Reader{rpc: rpc.New(rpcURL)}
}

// CurveAddress derives the bonding curve PDA for a mint.
func CurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint.Bytes()},
		pumpFunProgram,
	)
	return addr, err
}

// Fetch loads and deserializes the curve account for a mint. A nil state with
// nil error means the account does not exist (token not on pump.fun, or
// already migrated).
func (r *Reader) Fetch(ctx context.Context, mintAddr string) (*State, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %s: %w", mintAddr, err)
	}
	pda, err := CurveAddress(mint)
	if err != nil {
		return nil, fmt.Errorf("derive curve address: %w", err)
	}

	resp, err := r.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		if err == rpc.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get account info: %w", err)
	}
	if resp == nil || resp.Value == nil {
		return nil, nil
	}

	data := resp.Value.Data.GetBinary()
	return Decode(data)
}

// Decode parses the raw account bytes: 8-byte discriminator, five u64 LE
// fields, one bool byte.
func Decode(data []byte) (*State, error) {
	if len(data) < 8+5*8+1 {
		return nil, fmt.Errorf("curve account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], curveDiscriminator) {
		return nil, fmt.Errorf("not a bonding curve account (discriminator %x)", data[:8])
	}

	body := data[8:]
	s := &State{
		VirtualTokenReserves: binary.LittleEndian.Uint64(body[0:8]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(body[8:16]),
		RealTokenReserves:    binary.LittleEndian.Uint64(body[16:24]),
		RealSolReserves:      binary.LittleEndian.Uint64(body[24:32]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(body[32:40]),
		Complete:             body[40] != 0,
	}
	return s, nil
}

// Progress returns how far along the curve the token is, 0–100. A completed
// curve is always 100 regardless of reserve math.
func (s *State) Progress() float64 {
	if s.Complete {
		return 100
	}
	bought := float64(virtualStart) - float64(s.VirtualTokenReserves)
	if bought < 0 {
		bought = 0
	}
	progress := bought / tokensSoldOnCurve * 100
	if progress > 100 {
		progress = 100
	}
	return progress
}

// MarketCapUSD estimates the cap from virtual SOL reserves and curve stage.
// A heuristic: the multiplier grows with progress since price climbs along
// the curve.
func (s *State) MarketCapUSD(solPriceUSD float64) float64 {
	liquidityUSD := float64(s.VirtualSolReserves) / lamportsPerSol * solPriceUSD
	progress := s.Progress()

	var cap float64
	switch {
	case progress >= 99:
		cap = liquidityUSD * (5 + (progress-99)*5)
	case progress >= 90:
		cap = liquidityUSD * (3 + (progress-90)/10*2)
	case progress >= 50:
		cap = liquidityUSD * (2 + (progress-50)/40)
	default:
		cap = liquidityUSD * (1 + progress/50)
	}
	if cap < 0 {
		cap = 0
	}
	return cap
}

func migrationLikelihood(progress float64, complete bool) string {
	switch {
	case complete:
		return "COMPLETED"
	case progress >= 95:
		return "VERY HIGH"
	case progress >= 90:
		return "HIGH"
	case progress >= 75:
		return "MEDIUM"
	case progress >= 50:
		return "LOW"
	default:
		return "VERY LOW"
	}
}

// Metrics implements the filter collaborator contract.
func (r *Reader) Metrics(ctx context.Context, mintAddr string, solPriceUSD float64) filter.CurveMetrics {
	state, err := r.Fetch(ctx, mintAddr)
	if err != nil {
		return filter.CurveMetrics{Status: "error", Err: err.Error()}
	}
	if state == nil {
		return filter.CurveMetrics{Status: "not_found_or_invalid"}
	}
	return StateMetrics(state, solPriceUSD)
}

// StateMetrics folds a decoded state into the filter-facing shape.
func StateMetrics(state *State, solPriceUSD float64) filter.CurveMetrics {
	progress := state.Progress()
	m := filter.CurveMetrics{
		Status:              "success",
		ProgressPercent:     progress,
		MigrationLikelihood: migrationLikelihood(progress, state.Complete),
	}
	if solPriceUSD > 0 {
		m.MarketCap = state.MarketCapUSD(solPriceUSD)
	} else {
		log.Debug().Msg("sol price unavailable, skipping curve market cap estimate")
	}
	return m
}
