// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

/*
Package mfrc522 provides a pure Go driver for the NXP MFRC522 contactless
reader chip and ISO/IEC 14443-A cards, MIFARE Classic in particular.

The MFRC522 is a register mapped transceiver at 13.56 MHz. This package
sequences its registers: reset, antenna and receiver gain, the CRC
coprocessor, the FIFO and the PICC exchange, and builds the card protocol on
top: REQA/WUPA, cascade anticollision and select, HLTA, MIFARE
authentication, block read and write, value block arithmetic and UID rewrite
on UID changeable clones.

Features:
  - Register transports: SPI, I2C and UART
  - Hardware reset through a GPIO line held in an explicit pin registry
  - Anticollision for 4, 7 and 10 byte UIDs
  - MIFARE Classic authentication, read, write and value blocks
  - Ultralight page write
  - Chip self test and memory dumps

Errors and status codes:

Every wait for the chip is a bounded busy poll. Expected outcomes of the RF
protocol (a collision, no card answering, a NAK, a wrong CRC) are reported
as a Status. Failures of the host interface are returned as an error; when
an operation returns a non-nil error its Status is StatusError and carries no
meaning.

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-mfrc522"
	    "github.com/ZaparooProject/go-mfrc522/pins"
	    "github.com/ZaparooProject/go-mfrc522/transport/spi"
	)

	bus, err := spi.Open(spi.ReaderConfig())
	if err != nil {
	    log.Fatal(err)
	}

	registry := pins.NewRegistry(pins.NewSysfsBackend())
	defer registry.ReleaseAll()

	device, err := mfrc522.New(spi.NewTransport(bus), mfrc522.WithResetPin(registry, 25))
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	for {
	    present, err := device.IsNewCardPresent()
	    if err != nil {
	        log.Fatal(err)
	    }
	    if !present {
	        time.Sleep(time.Second)
	        continue
	    }
	    if ok, _ := device.ReadCardSerial(); ok {
	        fmt.Println("card", device.UID())
	        device.HaltA()
	    }
	}

Reading a MIFARE Classic block:

	uid := device.UID()
	status, err := device.Authenticate(mfrc522.KeyA, 4, mfrc522.DefaultKey, uid)
	if err == nil && status == mfrc522.StatusOK {
	    data, status, err := device.Read(4)
	    ...
	}
	device.StopCrypto1()

Thread Safety:

A Device is not safe for concurrent use. The pin registry is.
*/
package mfrc522
