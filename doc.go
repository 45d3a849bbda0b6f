/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package merklerecord commits JSON documents field by field so that a holder can later disclose any subset of
// the fields, hash or partially mask some of them, and still prove the result against a root hash published on
// a ledger.
//
// Packages for end developer usage
//
// record: flattens a JSON document and assigns its fields to channels, hashable or maskable.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/merklerecord/record
//
// merkle: builds the salted leaves and the Merkle root of every channel.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/merklerecord/merkle
//
// onchain: encodes channels for publication and rebuilds them with tamper detection.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/merklerecord/onchain
//
// proof: redacts a committed record and verifies it against the published roots.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/merklerecord/proof
//
// ledger: stores published channels through the aries storage SPI.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/merklerecord/ledger
//
// Basic workflow
//
//	1) Parse the document with record.FromJSON and assign every field to a channel.
//	2) Group the fields with record.FromRecord and commit them with merkle.FromRecordByChannels.
//	3) Publish onchain.FromMerkleRecord(...).OnChainData(id) for every channel.
//	4) Start a proof with proof.FromMerkleRecord, redact it and export it with ToProofChannels.
//	5) The verifier imports it with proof.FromProofChannels and calls Verify with the published roots.
package merklerecord
