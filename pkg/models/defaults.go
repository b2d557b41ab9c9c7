package models

// GetDefaultParameters returns the reference deep-patch configuration
// used as a starting point for new runs.
func GetDefaultParameters() *Parameters {
	return &Parameters{
		Sky: SkyParameters{
			InputFilename: "s4cmb/data/test_data_set_lensedCls.dat",
			FwhmIn:        3.5,
			NsideIn:       512,
			MapSeed:       5843787,
			DoPol:         true,
			NoIleak:       false,
			NoQuleak:      false,
		},
		Instrument: InstrumentParameters{
			Ncrate:          1,
			NdfmuxPerCrate:  1,
			NsquidPerMux:    1,
			NpairPerSquid:   4,
			FpSize:          60.0,
			Fwhm:            3.5,
			BeamSeed:        58347,
			ProjectedFpSize: 3.0,
			PmName:          "5params",
			TypeHwp:         "CRHWP",
			FreqHwp:         2.0,
			AngleHwp:        0.0,
			NameInstrument:  "so_deep",
		},
		Scan: ScanParameters{
			Nces:               12,
			StartDate:          "2013/1/1 00:00:00",
			TelescopeLongitude: "-67:46.816",
			TelescopeLatitude:  "-22:56.396",
			TelescopeElevation: 5200.0,
			NameStrategy:       "deep_patch",
			SamplingFreq:       15.0,
			SkySpeed:           0.4,
			Ut1utcFn:           "s4cmb/data/ut1utc.ephem",
			Language:           "python",
		},
		Output: OutputParameters{
			Projection:      "flat",
			NsideOut:        512,
			PixelSize:       0.5,
			Width:           140.0,
			ArrayNoiseLevel: nil,
			ArrayNoiseSeed:  487587,
			FolderOut:       "s4cmb_output",
			SimNumber:       0,
			Tag:             "run_0",
			Verbose:         false,
		},
	}
}
