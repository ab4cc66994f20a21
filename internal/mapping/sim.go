package mapping

import "simindex/internal/normalizer"

// SIM returns the curated mapping for SIM mortality records (declaração de
// óbito extracts enriched with municipality and cause-of-death reference
// columns). Field names match the source dataset exactly, including case.
func SIM() Static {
	return Static{Table: simTable()}
}

func simTable() map[string]Property {
	t := map[string]Property{
		"ORIGEM":     Integer(),
		"TIPOBITO":   Integer(),
		"DTOBITO":    Date(),
		"HORAOBITO":  Keyword(),
		"NATURAL":    Keyword(),
		"CODMUNNATU": Keyword(),
		"DTNASC":     Date(),
		"IDADE":      Integer(),

		"idade_obito_anos":  Float(),
		"idade_obito_meses": Integer(),
		"idade_obito_dias":  Integer(),
		"idade_obito_horas": Integer(),
		"idade_obito_mins":  Integer(),

		"SEXO":       Integer(),
		"RACACOR":    Integer(),
		"ESTCIV":     Integer(),
		"ESC":        Integer(),
		"ESC2010":    Integer(),
		"SERIESCFAL": Keyword(),
		"OCUP":       Keyword(),
		"CODMUNRES":  Keyword(),
		"LOCOCOR":    Integer(),
		"CODESTAB":   Keyword(),
		"ESTABDESCR": Keyword(),
		"CODMUNOCOR": Keyword(),

		"IDADEMAE":   Integer(),
		"ESCMAE":     Integer(),
		"ESCMAE2010": Integer(),
		"SERIESCMAE": Keyword(),
		"OCUPMAE":    Keyword(),
		"QTDFILVIVO": Integer(),
		"QTDFILMORT": Integer(),
		"GRAVIDEZ":   Integer(),
		"SEMAGESTAC": Float(),
		"GESTACAO":   Keyword(),
		"PARTO":      Integer(),
		"OBITOPARTO": Integer(),
		"PESO":       Float(),
		"TPMORTEOCO": Integer(),
		"OBITOGRAV":  Integer(),
		"OBITOPUERP": Integer(),

		"ASSISTMED": Integer(),
		"EXAME":     Integer(),
		"CIRURGIA":  Integer(),
		"NECROPSIA": Integer(),

		"LINHAA":     Keyword(),
		"LINHAB":     Keyword(),
		"LINHAC":     Keyword(),
		"LINHAD":     Keyword(),
		"LINHAII":    Keyword(),
		"CAUSABAS":   Keyword(),
		"CB_PRE":     Keyword(),
		"COMUNSVOIM": Keyword(),
		"DTATESTADO": Date(),
		"CIRCOBITO":  Integer(),
		"ACIDTRAB":   Keyword(),
		"FONTE":      Keyword(),
		"NUMEROLOTE": Keyword(),
		"TPPOS":      Keyword(),
		"DTINVESTIG": Keyword(), // no reliable format in source data
		"CAUSABAS_O": Keyword(),
		"DTCADASTRO": Date(),
		"ATESTANTE":  Keyword(),
		"STCODIFICA": Keyword(),
		"CODIFICADO": Keyword(),
		"VERSAOSIST": Keyword(),
		"VERSAOSCB":  Keyword(),
		"FONTEINV":   Keyword(),
		"DTRECEBIM":  Date(),
		"ATESTADO":   Keyword(),
		"DTRECORIGA": Keyword(), // no reliable format in source data
		"CAUSAMAT":   Keyword(),
		"ESCMAEAGR1": Integer(),
		"ESCFALAGR1": Integer(),
		"STDOEPIDEM": Keyword(),
		"STDONOVA":   Keyword(),
		"DIFDATA":    Integer(),
		"NUDIASOBCO": Integer(),
		"NUDIASOBIN": Integer(),
		"DTCADINV":   Keyword(), // no reliable format in source data
		"TPOBITOCOR": Integer(),
		"DTCONINV":   Keyword(), // no reliable format in source data
		"FONTES":     Keyword(),
		"TPRESGINFO": Keyword(),
		"TPNIVELINV": Keyword(),
		"NUDIASINF":  Keyword(),
		"DTCADINF":   Keyword(), // no reliable format in source data
		"MORTEPARTO": Keyword(),
		"DTCONCASO":  Keyword(), // no reliable format in source data
		"FONTESINF":  Keyword(),
		"ALTCAUSA":   Keyword(),
		"CONTADOR":   Integer(),

		"def_tipo_obito":  Keyword(),
		"def_sexo":        Keyword(),
		"def_raca_cor":    Keyword(),
		"def_est_civil":   Keyword(),
		"def_escol":       Keyword(),
		"def_loc_ocor":    Keyword(),
		"def_escol_mae":   Keyword(),
		"def_gravidez":    Keyword(),
		"def_gestacao":    Keyword(),
		"def_parto":       Keyword(),
		"def_obito_parto": Keyword(),
		"def_obito_grav":  Keyword(),
		"def_obito_puerp": Keyword(),
		"def_assist_med":  Keyword(),
		"def_exame":       Keyword(),
		"def_cirurgia":    Keyword(),
		"def_necropsia":   Keyword(),
		"def_circ_obito":  Keyword(),
		"def_acid_trab":   Keyword(),
		"def_fonte":       Keyword(),

		"causabas_capitulo":     Keyword(),
		"causabas_grupo":        Keyword(),
		"causabas_categoria":    Keyword(),
		"causabas_subcategoria": Keyword(),

		"ocor_coordenadas": GeoPoint(),
		"res_coordenadas":  GeoPoint(),

		"data_obito":       Date(),
		"dia_semana_obito": Keyword(),
		"ano_obito":        Integer(),
		"data_nasc":        Date(),
		"dia_semana_nasc":  Keyword(),
		"ano_nasc":         Integer(),

		"idade_obito":           Float(),
		"idade_obito_calculado": Float(),
	}

	// Municipality reference columns exist twice, prefixed by residence
	// ("res") and occurrence ("ocor").
	for _, p := range []string{"res", "ocor"} {
		t[p+"_MUNNOME"] = Keyword()
		t[p+"_MUNNOMEX"] = Keyword()
		t[p+"_AMAZONIA"] = Keyword()
		t[p+"_FRONTEIRA"] = Keyword()
		t[p+"_CAPITAL"] = Keyword()
		t[p+"_MSAUDCOD"] = Keyword()
		t[p+"_RSAUDCOD"] = Keyword()
		t[p+"_CSAUDCOD"] = Keyword()
		t[p+"_ANOEXT"] = Keyword()
		t[p+"_SUCESSOR"] = Keyword()
		t[p+"_LATITUDE"] = Float()
		t[p+"_LONGITUDE"] = Float()
		t[p+"_ALTITUDE"] = Integer()
		t[p+"_AREA"] = Float()
		t[p+"_codigo_adotado"] = Keyword()
		t[p+"_SIGLA_UF"] = Keyword()
		t[p+"_CODIGO_UF"] = Integer()
		t[p+"_NOME_UF"] = Keyword()
		t[p+"_REGIAO"] = Keyword()
	}

	return t
}

// SIMRules returns the normalization rules matching the curated SIM mapping:
// which raw columns are dates, integers, floats, which prefixes compose
// geo-points, and the derived date companions.
func SIMRules() normalizer.Rules {
	return normalizer.Rules{
		DateFields: []string{"DTOBITO", "DTNASC", "DTATESTADO", "DTCADASTRO", "DTRECEBIM"},
		DateLayout: normalizer.DefaultDateLayout,
		IntFields: []string{
			"ORIGEM", "TIPOBITO", "IDADE", "SEXO", "RACACOR", "ESTCIV", "ESC",
			"ESC2010", "LOCOCOR", "IDADEMAE", "ESCMAE", "ESCMAE2010",
			"QTDFILVIVO", "QTDFILMORT", "GRAVIDEZ", "PARTO", "OBITOPARTO",
			"TPMORTEOCO", "OBITOGRAV", "OBITOPUERP", "ASSISTMED", "EXAME",
			"CIRURGIA", "NECROPSIA", "CIRCOBITO", "ESCMAEAGR1", "ESCFALAGR1",
			"DIFDATA", "NUDIASOBCO", "NUDIASOBIN", "TPOBITOCOR", "CONTADOR",
			"idade_obito_meses", "idade_obito_dias", "idade_obito_horas",
			"idade_obito_mins", "ano_obito", "ano_nasc",
			"res_ALTITUDE", "ocor_ALTITUDE", "res_CODIGO_UF", "ocor_CODIGO_UF",
		},
		FloatFields: []string{
			"SEMAGESTAC", "PESO", "idade_obito_anos", "idade_obito",
			"idade_obito_calculado",
			"res_LATITUDE", "res_LONGITUDE", "res_AREA",
			"ocor_LATITUDE", "ocor_LONGITUDE", "ocor_AREA",
		},
		GeoPrefixes:    []string{"res", "ocor"},
		DateCompanions: map[string]string{"DTOBITO": "data_obito", "DTNASC": "data_nasc"},
	}
}
