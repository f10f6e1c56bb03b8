package theme

// Seasonal palette, selected with MEMEBOT_THEME=halloween.
func init() {
	MustRegister(&Theme{
		Name:       "halloween",
		Primary:    0x6B2FA3, // Purple
		MemeSample: 0x4B3B5C,
		MemeFinal:  0xEB6123, // Pumpkin
	})
}
