package filter

import (
	"context"
	"fmt"

	"github.com/tokenscout/pkg/config"
)

// LiquidityUnit flags thin pools: absolute USD liquidity below the floor, or a
// liquidity/market-cap ratio low enough to suggest an inflated cap.
func LiquidityUnit(cfg *config.Config) Unit {
	return NewSingleCheck("liquidity", func(_ context.Context, tok *Token) Verdict {
		if tok.Liquidity < cfg.MinLiquidity {
			return Failed("low_liquidity").WithScore(tok.Liquidity)
		}
		if tok.MarketCap > 0 {
			ratio := tok.Liquidity / tok.MarketCap
			if ratio < cfg.MinLiquidityRatio {
				return Failed("low_liquidity_ratio").WithScore(ratio)
			}
		}
		return Passed().WithScore(tok.Liquidity)
	})
}

// VolumeUnit flags dead trading activity on both the 24h and 5m windows.
func VolumeUnit(cfg *config.Config) Unit {
	return NewSingleCheck("volume", func(_ context.Context, tok *Token) Verdict {
		if tok.Volume24h < cfg.MinVolume24h {
			return Failed("volume_24h_too_low").WithScore(tok.Volume24h)
		}
		if tok.Volume5m < cfg.MinVolume5m {
			return Failed("volume_5m_too_low").WithScore(tok.Volume5m)
		}
		return Passed().WithScore(tok.Volume24h)
	})
}

// MoonshotUnit keeps only tokens with breakout characteristics: strong 24h
// price and volume momentum at a still-small market cap.
func MoonshotUnit(cfg *config.Config) Unit {
	return NewSingleCheck("moonshot", func(_ context.Context, tok *Token) Verdict {
		if tok.PriceChange24h < cfg.MoonshotMinPriceChange24h {
			return Failed(fmt.Sprintf("price_change_24h %.1f%% below %.1f%%",
				tok.PriceChange24h, cfg.MoonshotMinPriceChange24h))
		}
		if tok.VolumeChange24h < cfg.MoonshotMinVolumeChange24h {
			return Failed(fmt.Sprintf("volume_change_24h %.1f%% below %.1f%%",
				tok.VolumeChange24h, cfg.MoonshotMinVolumeChange24h))
		}
		if tok.MarketCap > cfg.MoonshotMaxMarketCap {
			return Failed("market_cap_too_high").WithScore(tok.MarketCap)
		}
		return Passed()
	})
}
