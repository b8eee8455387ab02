package auth

// Origen de las claims, según el modo de autenticación.
const (
	SourceDev    = "dev"
	SourceJWT    = "jwt"
	SourceRemote = "remote"
)

// Claims identifica al paciente dueño de la petición. Todo el alcance de
// datos (medicamentos, horarios, historial) se resuelve a partir de UserID.
type Claims struct {
	UserID string
	Email  string
	Source string
}
