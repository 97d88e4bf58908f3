package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/mbalug7/go-semtech-lora/pkg/radio"
	"github.com/mbalug7/go-semtech-lora/pkg/rpi"
	"github.com/mbalug7/go-semtech-lora/pkg/status"
)

func main() {
	familyName := flag.String("family", "sx126x", "radio family, sx126x or sx128x")
	mode := flag.String("mode", "receive", "send or receive")
	freq := flag.Uint("freq", 0, "carrier frequency in Hz, family default when 0")
	msg := flag.String("msg", "ASTATUS", "payload to send")
	flag.Parse()

	family := params.SX126x
	switch *familyName {
	case "sx126x":
	case "sx128x":
		family = params.SX128x
	default:
		log.Fatalf("unknown radio family %q", *familyName)
	}

	// RPi 4 wiring
	// BUSY -> GPIO 20
	// NRESET -> GPIO 18
	// NSS -> GPIO 21, driven by hand so several radios can share spidev0.0
	// DIO1 -> GPIO 16, tx done
	// DIO3 -> GPIO 6, rx done
	// gpiochip0 -> RPi4 GPIO chip name, 5.5+ Linux kernel needed
	board, err := rpi.Open(rpi.Config{
		SPIDevice:     "/dev/spidev0.0",
		GPIOChip:      "gpiochip0",
		BusyPin:       20,
		ResetPin:      18,
		ChipSelectPin: 21,
		DIO1Pin:       16,
		DIO3Pin:       6,
	})
	if err != nil {
		log.Fatal(err)
	}

	irq := make(chan int, 1)
	err = board.RegisterIRQCb(func(dio int) {
		select {
		case irq <- dio:
		default:
		}
	})
	if err != nil {
		log.Fatal(err)
	}

	builder := radio.NewConfigBuilder(family)
	if *freq != 0 {
		builder.Frequency(uint32(*freq))
	}
	cfg, err := builder.Build()
	if err != nil {
		log.Fatal(err)
	}
	// leave twice the time on air before the chip gives up on a transmission
	toa := params.TimeOnAir(cfg.LoRa(), len(*msg))
	cfg, err = builder.Timeouts(2*toa+10*time.Millisecond, 5*time.Second).Build()
	if err != nil {
		log.Fatal(err)
	}

	iface, err := board.Interface(family)
	if err != nil {
		log.Fatal(err)
	}
	r, err := radio.New(cfg, iface)
	if err != nil {
		log.Fatalf("failed to initialize %s: %s", family, err)
	}
	log.Printf("%s ready on %d Hz, %s per %d byte packet", family, cfg.Frequency(), toa, len(*msg))

	signalInterruptChan := make(chan os.Signal, 1)
	signal.Notify(signalInterruptChan, os.Interrupt, syscall.SIGTERM)

	for {
		if *mode == "send" {
			err = r.Send([]byte(*msg), cfg.Frequency())
		} else {
			err = r.Receive(uint8(params.MaxPayload(family)), cfg.Frequency())
		}
		if err != nil {
			log.Printf("failed to start %s: %s", *mode, err)
			break
		}

		select {
		case <-signalInterruptChan:
			shutdown(r, board)
			return
		case <-irq:
		}

		if *mode == "send" {
			if err := r.CleanupTx(); err != nil {
				log.Printf("tx failed: %s", err)
			} else {
				log.Printf("sent %q", *msg)
			}
			time.Sleep(time.Second)
			continue
		}
		handleRx(r)
	}
	shutdown(r, board)
}

func handleRx(r *radio.Radio) {
	_, cs, err := r.CleanupRx()
	if errors.Is(err, radio.ErrCRC) {
		log.Printf("dropped corrupted packet")
		return
	}
	if err != nil {
		log.Printf("rx failed: %s", err)
		return
	}
	if cs == status.Timeout {
		return
	}
	payload := r.Payload()
	log.Printf("NEW MSG RECEIVED HEX: %s", hex.EncodeToString(payload))
	log.Printf("NEW MSG RECEIVED STRING: %s", string(payload))
	ps, err := r.PacketStatus()
	if err != nil {
		log.Printf("failed to read packet status: %s", err)
		return
	}
	log.Printf("RSSI [%.1f dBm] SNR [%.2f dB]", ps.RSSIdBm(), ps.SNRdB())
}

func shutdown(r *radio.Radio, board *rpi.Board) {
	if err := r.SetOperatingMode(radio.Sleep(false)); err != nil {
		log.Printf("failed to put radio to sleep: %s", err)
	}
	if err := board.Close(); err != nil {
		log.Printf("failed to close radio board: %s", err)
	}
}
