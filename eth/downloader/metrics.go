// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Contains the metrics collected by the downloader.

package downloader

import "github.com/ethersync/ethersync/metrics"

var (
	headersInMeter = metrics.GetOrRegisterMeter("eth/downloader/headers/in", nil)
	bodiesInMeter  = metrics.GetOrRegisterMeter("eth/downloader/bodies/in", nil)
	blacklistMeter = metrics.GetOrRegisterMeter("eth/downloader/peers/blacklisted", nil)

	importedCounter = metrics.GetOrRegisterCounter("eth/downloader/blocks/imported", nil)
	reorgCommitted  = metrics.GetOrRegisterCounter("eth/downloader/reorgs/committed", nil)
	reorgRejected   = metrics.GetOrRegisterCounter("eth/downloader/reorgs/rejected", nil)

	executeTimer = metrics.GetOrRegisterTimer("eth/downloader/blocks/execute", nil)
)
