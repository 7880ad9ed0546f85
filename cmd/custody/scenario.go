// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/luxfi/ids"

	"github.com/luxfi/custody"
)

// Scenario is a JSON description of a registry history and a sequence of
// finalized blocks to evaluate: genesis set, additional sets, the bond and
// membership event stream, and finalized blocks with their tallies.
type Scenario struct {
	Genesis SetConfig    `json:"genesis"`
	Sets    []SetConfig  `json:"sets"`
	Events  []EventEntry `json:"events"`
	Blocks  []BlockEntry `json:"blocks"`
}

type SetConfig struct {
	BondPerShare uint64   `json:"bondPerShare"`
	Coins        []string `json:"coins"`
}

type EventEntry struct {
	Validator    string `json:"validator"`
	Set          uint32 `json:"set"`
	DeltaShares  int64  `json:"deltaShares"`
	NewTotalBond uint64 `json:"newTotalBond"`
}

type BlockEntry struct {
	Height        uint64            `json:"height"`
	Producer      string            `json:"producer"`
	Votes         map[string]string `json:"votes"`
	Oraclizations []OraclEntry      `json:"oraclizations"`
}

type OraclEntry struct {
	Coin    string `json:"coin"`
	Payload string `json:"payload"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	return &s, nil
}

func (c *SetConfig) coinIDs() ([]ids.ID, error) {
	coins := make([]ids.ID, 0, len(c.Coins))
	for _, s := range c.Coins {
		coin, err := parseCoin(s)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}
	return coins, nil
}

func (b *BlockEntry) tally() (*custody.Tally, error) {
	producer, err := ids.NodeIDFromString(b.Producer)
	if err != nil {
		return nil, fmt.Errorf("invalid producer %q: %w", b.Producer, err)
	}
	votes := make(map[ids.NodeID]custody.Vote, len(b.Votes))
	for voter, vote := range b.Votes {
		nodeID, err := ids.NodeIDFromString(voter)
		if err != nil {
			return nil, fmt.Errorf("invalid voter %q: %w", voter, err)
		}
		parsed, err := parseVote(vote)
		if err != nil {
			return nil, err
		}
		votes[nodeID] = parsed
	}
	return &custody.Tally{
		Height:   b.Height,
		Producer: producer,
		Votes:    votes,
		Final:    true,
	}, nil
}

func (b *BlockEntry) oraclizations() ([]*custody.Oraclization, error) {
	oracls := make([]*custody.Oraclization, 0, len(b.Oraclizations))
	for _, entry := range b.Oraclizations {
		coin, err := parseCoin(entry.Coin)
		if err != nil {
			return nil, err
		}
		payload, err := hex.DecodeString(strings.TrimPrefix(entry.Payload, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid payload for coin %s: %w", entry.Coin, err)
		}
		oracls = append(oracls, &custody.Oraclization{Coin: coin, Payload: payload})
	}
	return oracls, nil
}

// parseCoin accepts either a CB58 id or a short human name, which is padded
// into an id so scenario files can say "BTC" instead of a full identifier.
func parseCoin(s string) (ids.ID, error) {
	if len(s) <= 8 {
		var coin ids.ID
		copy(coin[:], s)
		return coin, nil
	}
	coin, err := ids.FromString(s)
	if err != nil {
		return ids.ID{}, fmt.Errorf("invalid coin %q: %w", s, err)
	}
	return coin, nil
}

func parseVote(s string) (custody.Vote, error) {
	switch strings.ToLower(s) {
	case "approve", "yes":
		return custody.VoteApprove, nil
	case "reject", "no":
		return custody.VoteReject, nil
	case "abstain", "":
		return custody.VoteAbstain, nil
	default:
		return 0, fmt.Errorf("invalid vote %q", s)
	}
}
