package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollRareBands(t *testing.T) {
	cases := []struct {
		name  string
		roll  float64
		delta float64
		want  rareEvent
	}{
		// Con ganancia: crítico 3%, despertar 5%, monedas 8%.
		{"crítico dentro de banda", 0.029, 5, rareCrit},
		{"despertar tras crítico", 0.03, 5, rareAwaken},
		{"despertar borde superior", 0.079, 5, rareAwaken},
		{"monedas tras despertar", 0.08, 5, rareCoins},
		{"monedas borde superior", 0.159, 5, rareCoins},
		{"sin evento con ganancia", 0.16, 5, rareNone},

		// Con pérdida: pifia 2%, despertar 5%, monedas 8%.
		{"pifia dentro de banda", 0.019, -2, rareFumble},
		{"pifia no pasa del 2%", 0.02, -2, rareAwaken},
		{"despertar con pérdida", 0.069, -2, rareAwaken},
		{"monedas con pérdida", 0.07, -2, rareCoins},
		{"monedas borde con pérdida", 0.149, -2, rareCoins},
		{"sin evento con pérdida", 0.15, -2, rareNone},

		// Sin cambio: ni crítico ni pifia, despertar 5%, monedas 8%.
		{"sin crítico en empate", 0.01, 0, rareAwaken},
		{"despertar en empate", 0.049, 0, rareAwaken},
		{"monedas en empate", 0.05, 0, rareCoins},
		{"sin evento en empate", 0.13, 0, rareNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, rollRare(tc.roll, tc.delta))
		})
	}
	t.Logf("✅ bandas de eventos raros verificadas")
}

func TestRollRareNeverCrossSign(t *testing.T) {
	// El crítico nunca aplica sobre pérdidas ni la pifia sobre ganancias,
	// cualquiera sea la tirada.
	for r := 0.0; r < 1.0; r += 0.001 {
		require.NotEqual(t, rareCrit, rollRare(r, -3))
		require.NotEqual(t, rareFumble, rollRare(r, 3))
	}
}
